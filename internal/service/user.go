package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"attendance-bot/internal/models"
	"attendance-bot/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = errors.New("username atau password salah")
	ErrNotStudent         = errors.New("akun tersebut bukan akun siswa")
)

// NewStudent is the admin input for a new student account.
type NewStudent struct {
	Username      string `validate:"required,alphanum,min=3,max=32"`
	Name          string `validate:"required,max=100"`
	Class         string `validate:"required,max=20"`
	ParentContact string `validate:"omitempty,numeric,min=8,max=15"`
}

// StudentUpdate changes the profile of an existing student.
type StudentUpdate struct {
	Name          string `validate:"required,max=100"`
	Class         string `validate:"required,max=20"`
	ParentContact string `validate:"omitempty,numeric,min=8,max=15"`
}

type StudentSort string

const (
	SortByName  StudentSort = "nama"
	SortByClass StudentSort = "kelas"
)

type UserService struct {
	repo     repository.UserRepository
	validate *validator.Validate
	newID    func() string
	logger   *logrus.Logger
}

func NewUserService(repo repository.UserRepository) *UserService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &UserService{
		repo:     repo,
		validate: validator.New(),
		newID:    uuid.NewString,
		logger:   logger,
	}
}

// Login checks the credentials and links the Telegram chat to the account.
func (s *UserService) Login(chatID int64, username, password string) (*models.User, error) {
	user, err := s.repo.GetByCredentials(strings.TrimSpace(username), password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if user == nil {
		s.logger.WithFields(logrus.Fields{
			"chat_id":  chatID,
			"username": username,
		}).Warn("Failed login attempt")
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.LinkChat(user.ID, chatID); err != nil {
		return nil, fmt.Errorf("link chat: %w", err)
	}
	user.ChatID = &chatID

	s.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User logged in")

	return user, nil
}

func (s *UserService) Logout(chatID int64) error {
	return s.repo.UnlinkChat(chatID)
}

// CurrentUser returns the account linked to chatID, or nil when the chat is
// not logged in.
func (s *UserService) CurrentUser(chatID int64) (*models.User, error) {
	return s.repo.GetByChatID(chatID)
}

func (s *UserService) GetByID(id string) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *UserService) CreateStudent(in NewStudent) (*models.User, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Name = strings.TrimSpace(in.Name)
	in.Class = strings.TrimSpace(in.Class)
	in.ParentContact = normalizeContact(in.ParentContact)

	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("data siswa tidak valid: %w", err)
	}

	user := &models.User{
		ID:            s.newID(),
		Username:      in.Username,
		Password:      models.DefaultPassword,
		Role:          models.RoleStudent,
		Name:          in.Name,
		Class:         in.Class,
		ParentContact: in.ParentContact,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"class":   user.Class,
	}).Info("Student created")

	return user, nil
}

func (s *UserService) UpdateStudent(id string, in StudentUpdate) (*models.User, error) {
	user, err := s.student(id)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Class = strings.TrimSpace(in.Class)
	in.ParentContact = normalizeContact(in.ParentContact)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("data siswa tidak valid: %w", err)
	}

	user.Name = in.Name
	user.Class = in.Class
	user.ParentContact = in.ParentContact
	if err := s.repo.Update(user); err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteStudent removes the account. Attendance records keep the
// denormalised name and class.
func (s *UserService) DeleteStudent(id string) (*models.User, error) {
	user, err := s.student(id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(id); err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", id).Info("Student deleted")
	return user, nil
}

func (s *UserService) student(id string) (*models.User, error) {
	user, err := s.repo.GetByID(strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, repository.ErrUserNotFound
	}
	if !user.IsStudent() {
		return nil, ErrNotStudent
	}
	return user, nil
}

// ListStudents filters students by a case-insensitive search on name or
// username and by class ("" or "Semua" for every class).
func (s *UserService) ListStudents(search, class string, sortBy StudentSort) ([]models.User, error) {
	students, err := s.repo.GetStudents(NormalizeClass(class))
	if err != nil {
		return nil, err
	}

	search = strings.ToLower(strings.TrimSpace(search))
	if search != "" {
		filtered := students[:0]
		for _, st := range students {
			if strings.Contains(strings.ToLower(st.Name), search) || strings.Contains(strings.ToLower(st.Username), search) {
				filtered = append(filtered, st)
			}
		}
		students = filtered
	}

	switch sortBy {
	case SortByName:
		sort.SliceStable(students, func(i, j int) bool {
			return strings.ToLower(students[i].Name) < strings.ToLower(students[j].Name)
		})
	case SortByClass:
		sort.SliceStable(students, func(i, j int) bool {
			if students[i].Class != students[j].Class {
				return students[i].Class < students[j].Class
			}
			return strings.ToLower(students[i].Name) < strings.ToLower(students[j].Name)
		})
	}

	return students, nil
}

func (s *UserService) Classes() ([]string, error) {
	return s.repo.GetClasses()
}

func (s *UserService) Admins() ([]models.User, error) {
	return s.repo.GetAdmins()
}

// SeedDefaults makes sure an administrator account exists and, when demo is
// set, adds the demo student.
func (s *UserService) SeedDefaults(demo bool) error {
	admins, err := s.repo.Count(models.RoleAdmin)
	if err != nil {
		return err
	}
	if admins == 0 {
		if err := s.ensureUser(&models.User{
			Username: "admin",
			Password: models.DefaultPassword,
			Role:     models.RoleAdmin,
			Name:     "Administrator",
		}); err != nil {
			return err
		}
	}

	if !demo {
		return nil
	}

	return s.ensureUser(&models.User{
		Username:      "siswa",
		Password:      models.DefaultPassword,
		Role:          models.RoleStudent,
		Name:          "Budi Santoso",
		Class:         "12-IPA-1",
		ParentContact: "628123456789",
	})
}

func (s *UserService) ensureUser(u *models.User) error {
	exists, err := s.repo.Exists(u.Username)
	if err != nil || exists {
		return err
	}

	u.ID = s.newID()
	if err := s.repo.Create(u); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"username": u.Username,
		"role":     u.Role,
	}).Info("Seeded user")
	return nil
}

// InitializeAdmin links the configured admin chat to the "admin" account so
// the base administrator never needs to log in.
func (s *UserService) InitializeAdmin(adminChatID int64) error {
	if adminChatID == 0 {
		return nil
	}

	existing, err := s.repo.GetByChatID(adminChatID)
	if err != nil {
		return err
	}
	if existing != nil && existing.IsAdmin() {
		return nil
	}

	admin, err := s.repo.GetByUsername("admin")
	if err != nil {
		return err
	}
	if admin == nil {
		admin = &models.User{
			ID:       s.newID(),
			Username: "admin",
			Password: models.DefaultPassword,
			Role:     models.RoleAdmin,
			Name:     "Administrator",
		}
		if err := s.repo.Create(admin); err != nil {
			return err
		}
	}

	return s.repo.LinkChat(admin.ID, adminChatID)
}

func (s *UserService) FormatUserInfo(user *models.User) string {
	var lines []string

	lines = append(lines, "👤 Profil pengguna:")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("📛 Username: %s", user.Username))
	lines = append(lines, fmt.Sprintf("👨‍🎓 Nama: %s", user.Name))

	if user.IsStudent() {
		lines = append(lines, fmt.Sprintf("🏫 Kelas: %s", user.ClassOrDefault()))
		contact := user.ParentContact
		if contact == "" {
			contact = "-"
		}
		lines = append(lines, fmt.Sprintf("📱 Kontak orang tua: %s", contact))
	}

	roleEmoji := "👤"
	role := "Siswa"
	if user.IsAdmin() {
		roleEmoji = "👑"
		role = "Administrator"
	}
	lines = append(lines, fmt.Sprintf("%s Peran: %s", roleEmoji, role))

	return strings.Join(lines, "\n")
}

func (s *UserService) FormatStudentList(students []models.User) string {
	if len(students) == 0 {
		return "📭 Belum ada data siswa."
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("📋 Data siswa (%d):", len(students)))
	lines = append(lines, "")

	for i, st := range students {
		line := fmt.Sprintf("%d. %s (%s) - %s", i+1, st.Name, st.Username, st.ClassOrDefault())
		if st.ParentContact != "" {
			line += " 📱 " + st.ParentContact
		}
		lines = append(lines, line)
		lines = append(lines, fmt.Sprintf("    ID: %s", st.ID))
	}

	return strings.Join(lines, "\n")
}

// NormalizeClass maps the "all classes" filter values to "".
func NormalizeClass(class string) string {
	class = strings.TrimSpace(class)
	if strings.EqualFold(class, "Semua") {
		return ""
	}
	return class
}

func normalizeContact(contact string) string {
	var b strings.Builder
	for _, r := range contact {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
