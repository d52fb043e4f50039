package models

// Company is an organisation contacts and deals can belong to.
type Company struct {
	Base

	Name     string `gorm:"size:200;not null;index" json:"name"`
	Industry string `gorm:"size:100;index" json:"industry"`
	Website  string `gorm:"size:255" json:"website"`
	Phone    string `gorm:"size:50" json:"phone"`
	Email    string `gorm:"size:100" json:"email"`

	Address    string `gorm:"size:255" json:"address"`
	City       string `gorm:"size:100" json:"city"`
	State      string `gorm:"size:100" json:"state"`
	Country    string `gorm:"size:100" json:"country"`
	PostalCode string `gorm:"size:20" json:"postal_code"`

	Notes     string `gorm:"type:text" json:"notes"`
	CreatedBy *uint  `gorm:"index" json:"created_by"`
}

// CompanyRow is a Company enriched with display fields from joined tables.
type CompanyRow struct {
	Company
	CreatedByName string `json:"created_by_name"`
}
