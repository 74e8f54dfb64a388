package repository

import (
	"errors"
	"time"

	"attendance-bot/internal/models"

	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("pesan tidak ditemukan di antrean")

type NotificationRepository interface {
	CreateMany(ns []models.Notification) error
	GetAll() ([]models.Notification, error)
	GetSince(from time.Time) ([]models.Notification, error)
	GetByID(id string) (*models.Notification, error)
	Delete(id string) error
}

type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) (NotificationRepository, error) {
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		return nil, err
	}

	return &GormNotificationRepository{db: db}, nil
}

func (r *GormNotificationRepository) CreateMany(ns []models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.db.Create(&ns).Error
}

// GetAll returns the pending queue newest first.
func (r *GormNotificationRepository) GetAll() ([]models.Notification, error) {
	var ns []models.Notification
	err := r.db.Order("created_at DESC").Find(&ns).Error
	return ns, err
}

// GetSince includes entries that were already sent or dismissed.
func (r *GormNotificationRepository) GetSince(from time.Time) ([]models.Notification, error) {
	var ns []models.Notification
	err := r.db.Unscoped().Where("created_at >= ?", from.UTC()).Order("created_at DESC").Find(&ns).Error
	return ns, err
}

func (r *GormNotificationRepository) GetByID(id string) (*models.Notification, error) {
	var n models.Notification
	err := r.db.Where("id = ?", id).First(&n).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &n, nil
}

func (r *GormNotificationRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
