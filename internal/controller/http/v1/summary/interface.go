package summary

import (
	"context"
	"time"
)

type Notes interface {
	ApprovedNotesByDay(ctx context.Context, day time.Time) ([]string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, day time.Time, notes []string, force bool) (string, error)
}
