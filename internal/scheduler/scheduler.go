package scheduler

import (
	"context"
	"errors"
	"time"

	"attendance-bot/internal/models"
	"attendance-bot/internal/notify"
	"attendance-bot/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type LateChecker interface {
	CheckLate(ctx context.Context) ([]models.Notification, error)
}

// Scheduler runs the late check on a cron schedule and hands newly queued
// alerts to announce.
type Scheduler struct {
	cron     *cron.Cron
	checker  LateChecker
	announce func([]models.Notification)
	timeout  time.Duration
	logger   *logrus.Logger
}

func New(spec string, loc *time.Location, checker LateChecker, announce func([]models.Notification)) (*Scheduler, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		checker:  checker,
		announce: announce,
		timeout:  time.Minute,
		logger:   logger,
	}

	if _, err := s.cron.AddFunc(spec, s.RunLateCheck); err != nil {
		return nil, err
	}

	logger.WithField("schedule", spec).Info("Late check scheduled")
	return s, nil
}

// RunLateCheck performs one late check. Checks outside school hours are
// skipped quietly.
func (s *Scheduler) RunLateCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	alerts, err := s.checker.CheckLate(ctx)
	switch {
	case errors.Is(err, notify.ErrBeforeEntryTime), errors.Is(err, service.ErrNoSchoolToday):
		s.logger.WithError(err).Debug("Late check skipped")
		return
	case err != nil:
		s.logger.WithError(err).Error("Late check failed")
		return
	}

	if len(alerts) > 0 && s.announce != nil {
		s.announce(alerts)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running check to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
