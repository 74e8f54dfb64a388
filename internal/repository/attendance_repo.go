package repository

import (
	"errors"

	"attendance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrInvalidRecord = errors.New("data presensi tidak valid")

type AttendanceRepository interface {
	CreateWithNotification(record *models.AttendanceRecord, notification *models.Notification) error
	GetByStudentID(studentID string, limit int) ([]models.AttendanceRecord, error)
	GetByDateRange(from, to string) ([]models.AttendanceRecord, error)
	ExistsForStudentOnDate(studentID, date string) (bool, error)
}

type GormAttendanceRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAttendanceRepository(db *gorm.DB) (AttendanceRepository, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if err := db.AutoMigrate(&models.AttendanceRecord{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate attendance_records table")
		return nil, err
	}

	return &GormAttendanceRepository{db: db, logger: logger}, nil
}

// CreateWithNotification stores the record and, when given, the parent
// notification in one transaction. Either both rows are written or neither.
func (r *GormAttendanceRepository) CreateWithNotification(record *models.AttendanceRecord, notification *models.Notification) error {
	if !record.IsValid() {
		r.logger.WithFields(logrus.Fields{
			"student_id": record.StudentID,
			"status":     record.Status,
		}).Warn("Invalid attendance record")
		return ErrInvalidRecord
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		if notification != nil {
			if err := tx.Create(notification).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.WithError(err).WithField("student_id", record.StudentID).Error("Failed to store attendance record")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"record_id":  record.ID,
		"student_id": record.StudentID,
		"date":       record.Date,
		"status":     record.Status,
		"notified":   notification != nil,
	}).Info("Attendance record stored")

	return nil
}

// GetByStudentID returns the newest records first. A limit <= 0 returns all.
func (r *GormAttendanceRepository) GetByStudentID(studentID string, limit int) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	q := r.db.Where("student_id = ?", studentID).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	err := q.Find(&records).Error
	return records, err
}

// GetByDateRange returns records whose local date lies in [from, to]
// (both YYYY-MM-DD), oldest first.
func (r *GormAttendanceRepository) GetByDateRange(from, to string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.Where("date >= ? AND date <= ?", from, to).
		Order("timestamp ASC").
		Find(&records).Error
	return records, err
}

func (r *GormAttendanceRepository) ExistsForStudentOnDate(studentID, date string) (bool, error) {
	var count int64
	err := r.db.Model(&models.AttendanceRecord{}).
		Where("student_id = ? AND date = ?", studentID, date).
		Count(&count).Error
	return count > 0, err
}
