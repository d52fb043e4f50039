package models

const (
	ContactLead     = "lead"
	ContactProspect = "prospect"
	ContactCustomer = "customer"
	ContactInactive = "inactive"
)

var ContactStatuses = []string{ContactLead, ContactProspect, ContactCustomer, ContactInactive}

// Contact represents a single person tracked by the CRM
type Contact struct {
	Base

	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100;not null" json:"last_name"`
	Email     string `gorm:"size:100;index" json:"email"`
	Phone     string `gorm:"size:50" json:"phone"`
	Mobile    string `gorm:"size:50" json:"mobile"`
	Position  string `gorm:"size:100" json:"position"`

	// Status
	Status string `gorm:"size:20;not null;default:'lead';index" json:"status"`
	Source string `gorm:"size:100" json:"source"`

	Address    string `gorm:"size:255" json:"address"`
	City       string `gorm:"size:100" json:"city"`
	State      string `gorm:"size:100" json:"state"`
	Country    string `gorm:"size:100" json:"country"`
	PostalCode string `gorm:"size:20" json:"postal_code"`
	Notes      string `gorm:"type:text" json:"notes"`

	// References
	CompanyID  *uint `gorm:"index" json:"company_id"`
	AssignedTo *uint `gorm:"index" json:"assigned_to"`
	CreatedBy  *uint `gorm:"index" json:"created_by"`
}

// FullName joins first and last name.
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// ContactRow is a Contact enriched with display fields from joined tables.
type ContactRow struct {
	Contact
	CompanyName    string `json:"company_name"`
	AssignedToName string `json:"assigned_to_name"`
	CreatedByName  string `json:"created_by_name"`
}
