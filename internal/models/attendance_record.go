package models

import "time"

// AttendanceStatus is a status a student can submit. Absence (alpa) is never
// submitted; it only appears in recaps.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Hadir"
	StatusSick    AttendanceStatus = "Sakit"
	StatusExcused AttendanceStatus = "Izin"
)

func (s AttendanceStatus) IsValid() bool {
	switch s {
	case StatusPresent, StatusSick, StatusExcused:
		return true
	}
	return false
}

// RequiresEvidence reports whether the status must carry an evidence reference.
func (s AttendanceStatus) RequiresEvidence() bool {
	return s == StatusSick || s == StatusExcused
}

type AttendanceRecord struct {
	ID          string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StudentID   string           `gorm:"type:varchar(36);not null;index:idx_attendance_student_date" json:"student_id"`
	StudentName string           `gorm:"not null" json:"student_name"`
	Class       string           `gorm:"not null" json:"class"`
	Timestamp   time.Time        `gorm:"not null;index" json:"timestamp"`
	Date        string           `gorm:"type:varchar(10);not null;index:idx_attendance_student_date" json:"date"`
	Status      AttendanceStatus `gorm:"type:varchar(10);not null" json:"status"`

	// Present only
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lng,omitempty"`
	Distance  *float64 `json:"distance,omitempty"`

	// Sick / Excused only
	EvidenceRef string `json:"evidence_ref,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

func (r *AttendanceRecord) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil && r.Distance != nil
}

// IsValid checks that a record carries a location or evidence as its status requires
func (r *AttendanceRecord) IsValid() bool {
	if r.ID == "" || r.StudentID == "" || r.Date == "" || r.Timestamp.IsZero() {
		return false
	}
	if !r.Status.IsValid() {
		return false
	}
	if r.Status.RequiresEvidence() {
		return r.EvidenceRef != "" && !r.HasLocation()
	}
	return r.HasLocation() && r.EvidenceRef == ""
}
