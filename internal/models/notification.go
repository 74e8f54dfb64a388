package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationAttendance NotificationType = "Kehadiran"
	NotificationLate       NotificationType = "Keterlambatan"
)

// Notification is a queued WhatsApp message waiting for an administrator to send it.
// Sending or dismissing it soft-deletes the row so the day's history survives.
type Notification struct {
	ID          string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StudentID   string           `gorm:"type:varchar(36);not null;index" json:"student_id"`
	StudentName string           `gorm:"not null" json:"student_name"`
	Type        NotificationType `gorm:"type:varchar(20);not null;index" json:"type"`
	Contact     string           `gorm:"not null" json:"contact"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	CreatedAt   time.Time        `gorm:"not null;index" json:"created_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
