package attendance

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"time"

	"carelog/backend/foundation/web"
	"carelog/backend/internal/repository/postgres/attendance"
	"carelog/backend/internal/service"

	"github.com/pkg/errors"
)

const centreName = "Vibrant Aging Community Centre"

type Controller struct {
	attendance Attendance
	feed       Subscriber
	qrPayload  string
}

func NewController(attendance Attendance, feed Subscriber, qrPayload string) *Controller {
	return &Controller{attendance: attendance, feed: feed, qrPayload: qrPayload}
}

// Submit is the kiosk endpoint: PIN plus optional note, no authentication.
func (uc Controller) Submit(c *web.Context) error {
	var request attendance.SubmitRequest
	if err := c.BindFunc(&request, "Pin"); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.attendance.Submit(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetList(c *web.Context) error {
	var filter attendance.Filter

	if limit, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok {
		filter.Limit = limit
	}
	if offset, ok := c.GetQueryFunc(reflect.Int, "offset").(*int); ok {
		filter.Offset = offset
	}
	if page, ok := c.GetQueryFunc(reflect.Int, "page").(*int); ok {
		filter.Page = page
	}
	if search, ok := c.GetQueryFunc(reflect.String, "search").(*string); ok {
		filter.Search = search
	}
	if status, ok := c.GetQueryFunc(reflect.String, "status").(*string); ok {
		filter.Status = status
	}
	if date, ok := c.GetQueryFunc(reflect.String, "date").(*string); ok {
		filter.Date = date
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.attendance.GetList(c.Ctx, filter)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"results": list,
			"count":   count,
		},
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetDetailById(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.attendance.GetDetailById(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

// SetStatus moderates a pending submission. Approving twice is accepted and
// leaves the record approved.
func (uc Controller) SetStatus(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	var request attendance.SetStatusRequest

	if err := c.BindFunc(&request, "Status"); err != nil {
		return c.RespondError(err)
	}

	request.ID = id

	err := uc.attendance.SetStatus(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

// ExportApproved streams the approved-attendance report PDF.
func (uc Controller) ExportApproved(c *web.Context) error {
	groups, err := uc.attendance.ApprovedGroupedByDay(c.Ctx)
	if err != nil {
		return c.RespondError(err)
	}
	if len(groups) == 0 {
		return c.RespondError(web.NewRequestError(errors.New("no approved records to export"), http.StatusBadRequest))
	}

	report, err := service.AttendanceReportPDF(centreName+" - Attendance Report", groups)
	if err != nil {
		return c.RespondError(err)
	}

	filename := "approved-attendance-report-" + time.Now().Format("2006-01-02") + ".pdf"
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if _, err = c.Writer.Write(report); err != nil {
		return c.RespondError(err)
	}

	return nil
}

// GetQrCode serves the check-in QR code as a PNG.
func (uc Controller) GetQrCode(c *web.Context) error {
	image, err := service.EncodeQR(uc.qrPayload)
	if err != nil {
		return c.RespondError(err)
	}

	c.Header("Content-Type", "image/png")
	c.Header("Content-Disposition", `inline; filename="checkin-qr.png"`)
	c.Status(http.StatusOK)
	if _, err = c.Writer.Write(image); err != nil {
		return c.RespondError(err)
	}

	return nil
}

// GetQrPoster serves the printable poster PDF with the check-in QR code.
func (uc Controller) GetQrPoster(c *web.Context) error {
	poster, err := service.QRPosterPDF(centreName, uc.qrPayload)
	if err != nil {
		return c.RespondError(err)
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="checkin-qr-poster.pdf"`)
	c.Status(http.StatusOK)
	if _, err = c.Writer.Write(poster); err != nil {
		return c.RespondError(err)
	}

	return nil
}

// Live streams full-list snapshots over SSE. A snapshot goes out on connect
// and again after every change event; the client just re-renders the list.
func (uc Controller) Live(c *web.Context) error {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return c.RespondError(web.NewRequestError(errors.New("streaming unsupported"), http.StatusInternalServerError))
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	ctx, cancel := context.WithCancel(c.Ctx)
	defer cancel()

	events := uc.feed.SubscribeEvents(ctx)

	if err := uc.writeSnapshot(ctx, c, flusher); err != nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, open := <-events:
			if !open {
				return nil
			}
			if err := uc.writeSnapshot(ctx, c, flusher); err != nil {
				// Client went away; a stale write error is not worth surfacing.
				return nil
			}
		}
	}
}

func (uc Controller) writeSnapshot(ctx context.Context, c *web.Context, flusher http.Flusher) error {
	list, count, err := uc.attendance.GetFeedList(ctx, attendance.Filter{})
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"results": list,
		"count":   count,
	})
	if err != nil {
		return err
	}

	if _, err = c.Writer.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
