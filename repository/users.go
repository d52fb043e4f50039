package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"crmportal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserFilter holds the recognized filters of the user list.
type UserFilter struct {
	Role   string
	Status string
	Search string
}

func (f UserFilter) Conditions() Conditions {
	c := Conditions{}
	c.set("role", f.Role)
	c.set("status", f.Status)
	c.set("search", f.Search)
	return c
}

var userSchema = Schema{
	Table:   "users",
	Alias:   "u",
	Columns: []string{"u.*"},
	Predicates: map[string]Predicate{
		"role":   Exact{Column: "u.role"},
		"status": Exact{Column: "u.status"},
		"search": Search{Columns: []string{"u.username", "u.email", "u.first_name", "u.last_name"}},
	},
	Order: []string{"u.created_at DESC", "u.id DESC"},
	Mutable: []string{
		"username", "email", "first_name", "last_name", "role", "status",
	},
	OptionLabel: "first_name || ' ' || last_name",
	OptionOrder: "first_name, last_name",
	OptionWhere: map[string]interface{}{"status": models.UserActive},
}

type UserRepository struct {
	*Repository[models.User, models.User]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{New[models.User, models.User](db, userSchema)}
}

var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

// compareDummy spends the same bcrypt work as a real check so a missing
// account is not detectable by timing.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Authenticate looks the account up by username or email and verifies the
// password. Every failure is ErrInvalidCredentials.
func (r *UserRepository) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)

	var user models.User
	err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, login).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		compareDummy(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Taken reports whether column already holds value on a row other than
// exceptID. Pass 0 when creating.
func (r *UserRepository) Taken(ctx context.Context, column, value string, exceptID uint) (bool, error) {
	if column != "username" && column != "email" {
		return false, fmt.Errorf("unsupported unique column %q", column)
	}

	var n int64
	q := r.db.WithContext(ctx).Model(&models.User{}).Where(column+" = ?", value)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("check %s: %w", column, err)
	}
	return n > 0, nil
}

// HashPassword returns the bcrypt hash stored for a new password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
