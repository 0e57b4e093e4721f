package web

// Error wraps a cause with the HTTP status the handler should respond with.
type Error struct {
	Err    error
	Status int
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewRequestError is used when a known error condition is encountered and the
// handler should reply with a specific status instead of a 500.
func NewRequestError(err error, status int) error {
	return &Error{Err: err, Status: status}
}
