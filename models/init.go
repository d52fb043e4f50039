package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminSeed holds the credentials of the account created on first start.
type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// CreateDefaultAdmin inserts an active admin when the users table is empty.
// It reports whether an account was created.
func CreateDefaultAdmin(db *gorm.DB, seed AdminSeed) (bool, error) {
	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	admin := User{
		Username:     seed.Username,
		Email:        seed.Email,
		PasswordHash: string(hash),
		FirstName:    "System",
		LastName:     "Administrator",
		Role:         RoleAdmin,
		Status:       UserActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, err
	}
	return true, nil
}

// AutoMigrate creates or updates the CRM tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Company{},
		&Contact{},
		&Deal{},
		&Activity{},
	)
}
