package models

import "time"

// Base replaces gorm.Model for CRM records. Rows are removed with a hard
// delete, so there is no DeletedAt column.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrimaryKey returns the surrogate id assigned by the store.
func (b *Base) PrimaryKey() uint {
	return b.ID
}

// Option is an id/label pair used to fill form dropdowns.
type Option struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}
