package repository

import (
	"errors"
	"strings"

	"attendance-bot/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("pengguna tidak ditemukan")
	ErrUsernameTaken = errors.New("username sudah digunakan")
)

type UserRepository interface {
	Create(user *models.User) error
	Update(user *models.User) error
	Delete(id string) error
	GetByID(id string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByChatID(chatID int64) (*models.User, error)
	GetByCredentials(username, password string) (*models.User, error)
	GetStudents(class string) ([]models.User, error)
	GetAdmins() ([]models.User, error)
	GetClasses() ([]string, error)
	LinkChat(id string, chatID int64) error
	UnlinkChat(chatID int64) error
	Exists(username string) (bool, error)
	Count(role models.Role) (int, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) (UserRepository, error) {
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, err
	}

	return &GormUserRepository{db: db}, nil
}

func (r *GormUserRepository) Create(user *models.User) error {
	exists, err := r.Exists(user.Username)
	if err != nil {
		return err
	}
	if exists {
		return ErrUsernameTaken
	}

	return r.db.Create(user).Error
}

func (r *GormUserRepository) Update(user *models.User) error {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("username = ? AND id <> ?", user.Username, user.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameTaken
	}

	result := r.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"username":       user.Username,
		"name":           user.Name,
		"class":          user.Class,
		"parent_contact": user.ParentContact,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *GormUserRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *GormUserRepository) first(query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := r.db.Where(query, args...).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *GormUserRepository) GetByID(id string) (*models.User, error) {
	return r.first("id = ?", id)
}

func (r *GormUserRepository) GetByUsername(username string) (*models.User, error) {
	return r.first("username = ?", username)
}

func (r *GormUserRepository) GetByChatID(chatID int64) (*models.User, error) {
	return r.first("chat_id = ?", chatID)
}

// GetByCredentials is a plain equality match; passwords are not hashed.
func (r *GormUserRepository) GetByCredentials(username, password string) (*models.User, error) {
	return r.first("username = ? AND password = ?", username, password)
}

// GetStudents returns students ordered by class and name. An empty class
// returns every student.
func (r *GormUserRepository) GetStudents(class string) ([]models.User, error) {
	var users []models.User
	q := r.db.Where("role = ?", models.RoleStudent)
	if class = strings.TrimSpace(class); class != "" {
		q = q.Where("class = ?", class)
	}

	err := q.Order("class ASC").Order("name ASC").Find(&users).Error
	return users, err
}

func (r *GormUserRepository) GetAdmins() ([]models.User, error) {
	var users []models.User
	err := r.db.Where("role = ?", models.RoleAdmin).Order("name ASC").Find(&users).Error
	return users, err
}

func (r *GormUserRepository) GetClasses() ([]string, error) {
	var classes []string
	err := r.db.Model(&models.User{}).
		Where("role = ? AND class <> ''", models.RoleStudent).
		Distinct().
		Order("class ASC").
		Pluck("class", &classes).Error
	return classes, err
}

// LinkChat binds a Telegram chat to the account, detaching it from any other
// account first so one chat never speaks for two users.
func (r *GormUserRepository) LinkChat(id string, chatID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("chat_id = ? AND id <> ?", chatID, id).
			Update("chat_id", nil).Error; err != nil {
			return err
		}

		result := tx.Model(&models.User{}).Where("id = ?", id).Update("chat_id", chatID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func (r *GormUserRepository) UnlinkChat(chatID int64) error {
	return r.db.Model(&models.User{}).
		Where("chat_id = ?", chatID).
		Update("chat_id", nil).Error
}

func (r *GormUserRepository) Exists(username string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *GormUserRepository) Count(role models.Role) (int, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return int(count), err
}
