package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"temankosan/models"
	"temankosan/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

type RegisterInput struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	PasswordConfirm string
}

func (s *UserService) Register(in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := NormalizePhone(in.Phone)

	switch {
	case name == "":
		return nil, ErrBadRequest("Nama wajib diisi.")
	case !ValidEmail(email):
		return nil, ErrBadRequest("Format email tidak valid.")
	case phone != "" && !ValidPhone(phone):
		return nil, ErrBadRequest("Nomor telepon tidak valid (contoh: 081234567890).")
	case utf8.RuneCountInString(in.Password) < MinPasswordLength:
		return nil, ErrBadRequest(fmt.Sprintf("Password minimal %d karakter.", MinPasswordLength))
	case in.Password != in.PasswordConfirm:
		return nil, ErrBadRequest("Konfirmasi password tidak cocok.")
	}

	var n int64
	if err := s.DB.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if n > 0 {
		return nil, ErrConflict("Email sudah terdaftar.")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := models.User{
		Name:     name,
		Email:    email,
		Phone:    phone,
		Password: hash,
		Role:     models.RoleMember,
		IsActive: true,
	}
	if err := s.DB.Create(&u).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict("Email sudah terdaftar.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// Authenticate checks email and password and stamps last_login_at.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrBadRequest("Email dan password wajib diisi.")
	}

	invalid := ErrUnauthorized("Email atau password salah.")

	var u models.User
	if err := s.DB.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	legacy := false
	switch {
	case isBcryptHash(u.Password):
		if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
			return nil, invalid
		}
	case u.Password != "" && u.Password == password:
		legacy = true
	default:
		return nil, invalid
	}

	if !u.IsActive {
		return nil, ErrForbidden("Akun Anda dinonaktifkan. Hubungi admin.")
	}

	// legacy plain-text row: upgrade it now
	if legacy {
		hash, err := HashPassword(password)
		if err == nil {
			err = s.DB.Model(&u).Update("password", hash).Error
		}
		if err != nil {
			log.Printf("warning: upgrade password user#%d: %v", u.ID, err)
		}
	}

	now := time.Now()
	if err := s.DB.Model(&u).UpdateColumn("last_login_at", now).Error; err != nil {
		log.Printf("warning: last_login_at user#%d: %v", u.ID, err)
	}
	u.LastLoginAt = &now
	return &u, nil
}

func (s *UserService) Get(id uint) (*models.User, error) {
	var u models.User
	if err := s.DB.First(&u, id).Error; err != nil {
		return nil, notFoundOr(err, "Pengguna tidak ditemukan.", "find user")
	}
	return &u, nil
}

func (s *UserService) UpdateProfile(id uint, name, phone string) (*models.User, error) {
	name = strings.TrimSpace(name)
	phone = NormalizePhone(phone)
	if name == "" {
		return nil, ErrBadRequest("Nama wajib diisi.")
	}
	if phone != "" && !ValidPhone(phone) {
		return nil, ErrBadRequest("Nomor telepon tidak valid (contoh: 081234567890).")
	}

	u, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(u).Updates(map[string]interface{}{"name": name, "phone": phone}).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	u.Name, u.Phone = name, phone
	return u, nil
}

func (s *UserService) ChangePassword(id uint, current, next, confirm string) error {
	u, err := s.Get(id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)) != nil {
		return ErrBadRequest("Password saat ini salah.")
	}
	if utf8.RuneCountInString(next) < MinPasswordLength {
		return ErrBadRequest(fmt.Sprintf("Password minimal %d karakter.", MinPasswordLength))
	}
	if next != confirm {
		return ErrBadRequest("Konfirmasi password tidak cocok.")
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.DB.Model(u).Update("password", hash).Error
}

// ---------------------------
// Admin
// ---------------------------

type UserFilter struct {
	Role    string
	Active  string // "", "1", "0"
	Keyword string
	Page    int
	PerPage int
}

func (s *UserService) filtered(f UserFilter) *gorm.DB {
	q := s.DB.Model(&models.User{})
	if r := strings.TrimSpace(f.Role); r != "" {
		q = q.Where("role = ?", r)
	}
	switch f.Active {
	case "1":
		q = q.Where("is_active = ?", true)
	case "0":
		q = q.Where("is_active = ?", false)
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := likeLower(kw)
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)", like, like, like)
	}
	return q
}

func (s *UserService) List(f UserFilter) ([]models.User, utils.Pagination, error) {
	var total int64
	if err := s.filtered(f).Count(&total).Error; err != nil {
		return nil, utils.Pagination{}, fmt.Errorf("count users: %w", err)
	}
	p := utils.NewPagination(f.Page, f.PerPage, total)

	var list []models.User
	if err := s.filtered(f).
		Order("created_at DESC").Order("id DESC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&list).Error; err != nil {
		return nil, p, fmt.Errorf("list users: %w", err)
	}
	return list, p, nil
}

// ToggleActive flips is_active; an admin can never deactivate themselves.
func (s *UserService) ToggleActive(targetID uint, actor Actor) (bool, error) {
	if targetID == actor.UserID {
		return false, ErrForbidden("Anda tidak dapat menonaktifkan akun sendiri.")
	}
	var active bool
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, targetID).Error; err != nil {
			return notFoundOr(err, "Pengguna tidak ditemukan.", "find user")
		}
		active = !u.IsActive
		if err := tx.Model(&u).Update("is_active", active).Error; err != nil {
			return fmt.Errorf("toggle user: %w", err)
		}
		return logActivity(tx, actor, "toggle_user_status", "user", u.ID, map[string]bool{"is_active": active})
	})
	return active, err
}

func (s *UserService) ChangeRole(targetID uint, role string, actor Actor) error {
	if targetID == actor.UserID {
		return ErrForbidden("Anda tidak dapat mengubah role akun sendiri.")
	}
	role = strings.TrimSpace(role)
	if !models.ValidRole(role) {
		return ErrBadRequest("Role tidak valid.")
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, targetID).Error; err != nil {
			return notFoundOr(err, "Pengguna tidak ditemukan.", "find user")
		}
		from := u.Role
		if err := tx.Model(&u).Update("role", role).Error; err != nil {
			return fmt.Errorf("change role: %w", err)
		}
		return logActivity(tx, actor, "change_user_role", "user", u.ID, map[string]string{"from": from, "to": role})
	})
}

// Delete hard-deletes a user without active bookings.
func (s *UserService) Delete(targetID uint, actor Actor) error {
	if targetID == actor.UserID {
		return ErrForbidden("Anda tidak dapat menghapus akun sendiri.")
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, targetID).Error; err != nil {
			return notFoundOr(err, "Pengguna tidak ditemukan.", "find user")
		}
		active, err := CountActiveForUser(tx, u.ID)
		if err != nil {
			return fmt.Errorf("count active bookings: %w", err)
		}
		if active > 0 {
			return ErrConflict(fmt.Sprintf("Pengguna masih memiliki %d booking aktif.", active))
		}

		var reviewed []uint
		if err := tx.Model(&models.Review{}).Where("user_id = ?", u.ID).Pluck("kos_id", &reviewed).Error; err != nil {
			return fmt.Errorf("find reviews: %w", err)
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		for _, kosID := range reviewed {
			if err := recomputeRating(tx, kosID); err != nil {
				return err
			}
		}
		if err := tx.Delete(&u).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return logActivity(tx, actor, "delete_user", "user", u.ID, map[string]string{"email": u.Email})
	})
}
