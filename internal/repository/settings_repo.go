package repository

import (
	"errors"

	"attendance-bot/internal/models"

	"gorm.io/gorm"
)

type SettingsRepository interface {
	Get() (*models.SchoolSettings, error)
	Save(settings *models.SchoolSettings) error
}

type GormSettingsRepository struct {
	db *gorm.DB
}

func NewGormSettingsRepository(db *gorm.DB) (SettingsRepository, error) {
	if err := db.AutoMigrate(&models.SchoolSettings{}); err != nil {
		return nil, err
	}

	return &GormSettingsRepository{db: db}, nil
}

// Get returns the settings row, inserting the defaults on first use.
// Holidays are not loaded here.
func (r *GormSettingsRepository) Get() (*models.SchoolSettings, error) {
	var settings models.SchoolSettings
	err := r.db.First(&settings, models.SettingsID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.DefaultSchoolSettings()
		if err := r.db.Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}

	return &settings, nil
}

func (r *GormSettingsRepository) Save(settings *models.SchoolSettings) error {
	settings.ID = models.SettingsID
	return r.db.Save(settings).Error
}
