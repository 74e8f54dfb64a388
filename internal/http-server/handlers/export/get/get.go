package get

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"attendance-bot/internal/calendar"
	"attendance-bot/internal/export"
	"attendance-bot/internal/http-server/response"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type Exporter interface {
	ExportMonth(ctx context.Context, w io.Writer, year int, month time.Month, class string) (string, error)
	Today() time.Time
}

func New(log *logrus.Logger, exporter Exporter, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.export.get.New"

		entry := log.WithFields(logrus.Fields{
			"op":         op,
			"request_id": middleware.GetReqID(r.Context()),
		})

		q := r.URL.Query()
		period, err := calendar.PeriodRequest{
			Kind:  "bulanan",
			Month: q.Get("month"),
			Year:  q.Get("year"),
		}.Resolve(exporter.Today(), loc)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.BAD_REQUEST, err.Error()))
			return
		}

		var buf bytes.Buffer
		name, err := exporter.ExportMonth(r.Context(), &buf, period.Year, period.Month, q.Get("class"))
		if err != nil {
			entry.WithError(err).Error("failed to export recap")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.FAILED_REQUEST, "failed to export recap"))
			return
		}

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
		if _, err := w.Write(buf.Bytes()); err != nil {
			entry.WithError(err).Warn("failed to write export body")
		}
	}
}
