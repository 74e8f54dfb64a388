package get

import (
	"context"
	"net/http"
	"time"

	"attendance-bot/internal/calendar"
	"attendance-bot/internal/http-server/response"
	"attendance-bot/internal/recap"
	"attendance-bot/internal/service"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type RecapGetter interface {
	Recap(ctx context.Context, period calendar.Period, class string) (*service.RecapReport, error)
	Today() time.Time
}

type Row struct {
	recap.Row
	Percentage int `json:"percentage"`
}

type Response struct {
	response.Response
	School      string `json:"school,omitempty"`
	Type        string `json:"type,omitempty"`
	Period      string `json:"period,omitempty"`
	Class       string `json:"class,omitempty"`
	WorkingDays int    `json:"working_days"`
	Rows        []Row  `json:"rows,omitempty"`
}

func New(log *logrus.Logger, getter RecapGetter, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.recap.get.New"

		entry := log.WithFields(logrus.Fields{
			"op":         op,
			"request_id": middleware.GetReqID(r.Context()),
		})

		q := r.URL.Query()
		period, err := calendar.PeriodRequest{
			Kind:     q.Get("type"),
			Date:     q.Get("date"),
			Month:    q.Get("month"),
			Year:     q.Get("year"),
			Semester: q.Get("semester"),
		}.Resolve(getter.Today(), loc)
		if err != nil {
			entry.WithError(err).Info("invalid period")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.BAD_REQUEST, err.Error()))
			return
		}

		report, err := getter.Recap(r.Context(), period, q.Get("class"))
		if err != nil {
			entry.WithError(err).Error("failed to compute recap")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(response.FAILED_REQUEST, "failed to compute recap"))
			return
		}

		rows := make([]Row, len(report.Rows))
		for i, row := range report.Rows {
			rows[i] = Row{Row: row, Percentage: row.Percentage()}
		}

		entry.WithFields(logrus.Fields{
			"period": report.Period,
			"rows":   len(rows),
		}).Info("recap served")

		render.JSON(w, r, Response{
			School:      report.School,
			Type:        report.Type,
			Period:      report.Period,
			Class:       report.Class,
			WorkingDays: report.WorkingDays,
			Rows:        rows,
		})
	}
}
