package repository

import (
	"errors"

	"attendance-bot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrHolidayNotFound = errors.New("tanggal libur tidak ditemukan")

type HolidayRepository interface {
	Create(day *models.Holiday) error
	BulkCreate(days []models.Holiday) (int, error)
	Delete(date string) error
	GetAll() ([]models.Holiday, error)
	GetByYearMonth(year, month int) ([]models.Holiday, error)
	Exists(date string) (bool, error)
}

type GormHolidayRepository struct {
	db *gorm.DB
}

func NewGormHolidayRepository(db *gorm.DB) (HolidayRepository, error) {
	if err := db.AutoMigrate(&models.Holiday{}); err != nil {
		return nil, err
	}

	return &GormHolidayRepository{db: db}, nil
}

func (r *GormHolidayRepository) Create(day *models.Holiday) error {
	return r.db.Create(day).Error
}

// BulkCreate inserts days, skipping dates that already exist, and reports how
// many rows were added.
func (r *GormHolidayRepository) BulkCreate(days []models.Holiday) (int, error) {
	if len(days) == 0 {
		return 0, nil
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoNothing: true,
	}).Create(&days)

	return int(result.RowsAffected), result.Error
}

func (r *GormHolidayRepository) Delete(date string) error {
	result := r.db.Where("date = ?", date).Delete(&models.Holiday{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrHolidayNotFound
	}
	return nil
}

func (r *GormHolidayRepository) GetAll() ([]models.Holiday, error) {
	var days []models.Holiday
	err := r.db.Order("date ASC").Find(&days).Error
	return days, err
}

func (r *GormHolidayRepository) GetByYearMonth(year, month int) ([]models.Holiday, error) {
	var days []models.Holiday
	err := r.db.Where("year = ? AND month = ?", year, month).Order("date ASC").Find(&days).Error
	return days, err
}

func (r *GormHolidayRepository) Exists(date string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Holiday{}).Where("date = ?", date).Count(&count).Error
	return count > 0, err
}
