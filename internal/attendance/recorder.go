package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"attendance-bot/internal/calendar"
	"attendance-bot/internal/geo"
	"attendance-bot/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SettingsSource hands out a consistent copy of the school settings.
type SettingsSource interface {
	Snapshot(ctx context.Context) (models.SchoolSettings, error)
}

type Submission struct {
	Student  models.User
	Status   models.AttendanceStatus
	Evidence string
	Position geo.PositionProvider
}

// Recorder validates submissions and turns them into attendance records.
// It never persists anything.
type Recorder struct {
	settings SettingsSource
	loc      *time.Location
	now      func() time.Time
	newID    func() string
	logger   *logrus.Logger
}

type Option func(*Recorder)

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Recorder) { r.newID = newID }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

func NewRecorder(settings SettingsSource, loc *time.Location, opts ...Option) *Recorder {
	r := &Recorder{
		settings: settings,
		loc:      loc,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	return r
}

// Submit validates s and returns the record to store. The timestamp is taken
// once on entry; for Present the settings are read only after the position
// has been obtained.
func (r *Recorder) Submit(ctx context.Context, s Submission) (*models.AttendanceRecord, error) {
	now := r.now()

	log := r.logger.WithFields(logrus.Fields{
		"student_id": s.Student.ID,
		"status":     s.Status,
	})

	switch s.Status {
	case models.StatusPresent:
		if s.Position == nil {
			return nil, &PositionUnavailableError{Err: fmt.Errorf("penyedia lokasi tidak tersedia")}
		}

		pos, err := s.Position.CurrentPosition(ctx)
		if err != nil {
			log.WithError(err).Warn("Position acquisition failed")
			return nil, &PositionUnavailableError{Err: err}
		}

		settings, err := r.settings.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}

		distance, err := CheckRange(pos, settings)
		if err != nil {
			log.WithField("distance", distance).Info("Submission outside geofence")
			return nil, err
		}

		return NewRecord(r.newID(), s.Student, s.Status, now, r.loc, &Location{Coordinate: pos, Distance: distance}, ""), nil

	case models.StatusSick, models.StatusExcused:
		evidence := strings.TrimSpace(s.Evidence)
		if evidence == "" {
			return nil, ErrMissingEvidence
		}
		return NewRecord(r.newID(), s.Student, s.Status, now, r.loc, nil, evidence), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, s.Status)
}

// Location is the position attached to a Present record.
type Location struct {
	geo.Coordinate
	Distance float64
}

// CheckRange returns the distance from pos to the school target, or an
// *OutOfRangeError when pos lies outside the allowed radius.
func CheckRange(pos geo.Coordinate, settings models.SchoolSettings) (float64, error) {
	target := geo.Coordinate{Latitude: settings.TargetLat, Longitude: settings.TargetLng}
	distance := geo.DistanceMeters(pos, target)

	if !geo.IsWithinRadius(distance, settings.RadiusMeters) {
		return distance, &OutOfRangeError{Distance: distance, Radius: settings.RadiusMeters}
	}
	return distance, nil
}

// NewRecord builds a record with the student's name and class copied in.
func NewRecord(
	id string,
	student models.User,
	status models.AttendanceStatus,
	now time.Time,
	loc *time.Location,
	location *Location,
	evidence string,
) *models.AttendanceRecord {
	rec := &models.AttendanceRecord{
		ID:          id,
		StudentID:   student.ID,
		StudentName: student.Name,
		Class:       student.ClassOrDefault(),
		Timestamp:   now.UTC(),
		Date:        calendar.DateKey(now, loc),
		Status:      status,
		EvidenceRef: evidence,
	}

	if location != nil {
		lat, lng, dist := location.Latitude, location.Longitude, location.Distance
		rec.Latitude = &lat
		rec.Longitude = &lng
		rec.Distance = &dist
	}

	return rec
}

// HasSubmittedToday reports whether records holds an entry of studentID on
// the calendar date of today (in loc).
func HasSubmittedToday(studentID string, records []models.AttendanceRecord, today time.Time, loc *time.Location) bool {
	key := calendar.DateKey(today, loc)
	for _, r := range records {
		if r.StudentID == studentID && calendar.DateKey(r.Timestamp, loc) == key {
			return true
		}
	}
	return false
}

// ShouldNotify reports whether a parent notification is queued for student.
func ShouldNotify(student models.User) bool {
	return student.HasParentContact()
}
