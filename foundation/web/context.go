package web

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Context carries the request context and the helpers handlers use to bind,
// validate and respond. Bind/query errors are collected and surfaced through
// ValidQuery/ValidParam so handlers can read several values before checking.
type Context struct {
	*gin.Context
	Ctx context.Context

	queryErrs []error
	paramErrs []error
}

func NewContext(gc *gin.Context) *Context {
	return &Context{Context: gc, Ctx: gc.Request.Context()}
}

// BindFunc binds the JSON or form body into v and checks that the named
// struct fields are present (non-nil pointers, non-zero values).
func (c *Context) BindFunc(v interface{}, requiredFields ...string) error {
	if err := c.ShouldBind(v); err != nil {
		return NewRequestError(errors.Wrap(err, "binding request"), http.StatusBadRequest)
	}

	return requireFields(v, requiredFields...)
}

// GetQueryFunc reads and converts an optional query parameter. It returns a
// typed pointer (*int, *string, *bool) or a nil interface when the parameter
// is absent. Conversion failures are reported by ValidQuery.
func (c *Context) GetQueryFunc(kind reflect.Kind, name string) interface{} {
	value, ok := c.GetQuery(name)
	if !ok || value == "" {
		return nil
	}

	switch kind {
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			c.queryErrs = append(c.queryErrs, errors.Wrapf(err, "query %q", name))
			return nil
		}
		return &n
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			c.queryErrs = append(c.queryErrs, errors.Wrapf(err, "query %q", name))
			return nil
		}
		return &b
	case reflect.String:
		return &value
	default:
		c.queryErrs = append(c.queryErrs, fmt.Errorf("unsupported query kind %s for %q", kind, name))
		return nil
	}
}

// GetParam reads a path parameter, converting to the requested kind. A bad
// value is reported by ValidParam; the zero value is returned meanwhile.
func (c *Context) GetParam(kind reflect.Kind, name string) interface{} {
	value := c.Param(name)

	switch kind {
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			c.paramErrs = append(c.paramErrs, errors.Wrapf(err, "param %q", name))
			return 0
		}
		return n
	case reflect.String:
		return value
	default:
		c.paramErrs = append(c.paramErrs, fmt.Errorf("unsupported param kind %s for %q", kind, name))
		return ""
	}
}

func (c *Context) ValidQuery() error {
	if len(c.queryErrs) == 0 {
		return nil
	}

	return NewRequestError(joinErrs(c.queryErrs), http.StatusBadRequest)
}

func (c *Context) ValidParam() error {
	if len(c.paramErrs) == 0 {
		return nil
	}

	return NewRequestError(joinErrs(c.paramErrs), http.StatusBadRequest)
}

// Respond writes data as JSON with the given status code.
func (c *Context) Respond(data interface{}, statusCode int) error {
	c.JSON(statusCode, data)
	return nil
}

// RespondError writes the error response. *Error values carry their own
// status; anything else is an internal failure.
func (c *Context) RespondError(err error) error {
	status := http.StatusInternalServerError

	var webErr *Error
	if errors.As(err, &webErr) {
		status = webErr.Status
	}

	c.JSON(status, map[string]interface{}{
		"error":  err.Error(),
		"status": false,
	})

	return nil
}

func joinErrs(errs []error) error {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return errors.New(strings.Join(msgs, "; "))
}

// ValidateStruct checks that the named fields of the request struct are set.
func ValidateStruct(v interface{}, fields ...string) error {
	return requireFields(v, fields...)
}

// requireFields checks that the named fields of the struct pointed to by v
// are set: pointer fields must be non-nil, value fields non-zero.
func requireFields(v interface{}, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return NewRequestError(fmt.Errorf("expected struct, got %s", rv.Kind()), http.StatusBadRequest)
	}

	var missing []string
	for _, name := range fields {
		field := rv.FieldByName(name)
		if !field.IsValid() {
			missing = append(missing, name)
			continue
		}
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				missing = append(missing, name)
			}
			continue
		}
		if field.IsZero() {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return NewRequestError(fmt.Errorf("required field(s) missing: %s", strings.Join(missing, ", ")), http.StatusBadRequest)
	}

	return nil
}
