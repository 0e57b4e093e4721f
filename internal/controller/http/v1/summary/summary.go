package summary

import (
	"net/http"
	"reflect"
	"time"

	"carelog/backend/foundation/web"
	"carelog/backend/internal/service/summarizer"

	"github.com/Azure/go-autorest/autorest/date"
	"github.com/pkg/errors"
)

type Controller struct {
	notes      Notes
	summarizer Summarizer
	loc        *time.Location
}

func NewController(notes Notes, summarizer Summarizer, loc *time.Location) *Controller {
	return &Controller{notes: notes, summarizer: summarizer, loc: loc}
}

// GetDailySummary generates (or returns the cached) digest of a day's
// approved notes. force=true bypasses the cache for a manual retry.
func (uc Controller) GetDailySummary(c *web.Context) error {
	dayStr := c.Query("date")
	if dayStr == "" {
		return c.RespondError(web.NewRequestError(errors.New("date parameter is required"), http.StatusBadRequest))
	}

	parsedDay, err := date.ParseDate(dayStr)
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.New("invalid date format"), http.StatusBadRequest))
	}

	force := false
	if f, ok := c.GetQueryFunc(reflect.Bool, "force").(*bool); ok {
		force = *f
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	day := time.Date(parsedDay.Year(), parsedDay.Month(), parsedDay.Day(), 0, 0, 0, 0, uc.loc)

	notes, err := uc.notes.ApprovedNotesByDay(c.Ctx, day)
	if err != nil {
		return c.RespondError(err)
	}

	text, err := uc.summarizer.Summarize(c.Ctx, day, notes, force)
	if errors.Is(err, summarizer.ErrNoNotesForDay) {
		return c.RespondError(web.NewRequestError(err, http.StatusBadRequest))
	}
	if errors.Is(err, summarizer.ErrEmptySummary) {
		return c.RespondError(web.NewRequestError(err, http.StatusBadGateway))
	}
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusBadGateway))
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"date":    day.Format("2006-01-02"),
			"summary": text,
		},
		"status": true,
	}, http.StatusOK)
}
