package repository

import (
	"context"

	"crmportal/models"

	"gorm.io/gorm"
)

// ContactFilter holds the recognized filters of the contact list.
type ContactFilter struct {
	Status     string
	Search     string
	AssignedTo uint
	CompanyID  uint
}

func (f ContactFilter) Conditions() Conditions {
	c := Conditions{}
	c.set("status", f.Status)
	c.set("search", f.Search)
	c.setID("assigned_to", f.AssignedTo)
	c.setID("company_id", f.CompanyID)
	return c
}

var contactSchema = Schema{
	Table: "contacts",
	Alias: "c",
	Columns: []string{
		"c.*",
		"COALESCE(co.name, '') AS company_name",
		"COALESCE(au.first_name || ' ' || au.last_name, '') AS assigned_to_name",
		"COALESCE(cu.first_name || ' ' || cu.last_name, '') AS created_by_name",
	},
	Joins: []string{
		"LEFT JOIN companies co ON co.id = c.company_id",
		"LEFT JOIN users au ON au.id = c.assigned_to",
		"LEFT JOIN users cu ON cu.id = c.created_by",
	},
	Predicates: map[string]Predicate{
		"status":      Exact{Column: "c.status"},
		"search":      Search{Columns: []string{"c.first_name", "c.last_name", "c.email"}},
		"assigned_to": Exact{Column: "c.assigned_to"},
		"company_id":  Exact{Column: "c.company_id"},
	},
	Order: []string{"c.created_at DESC", "c.id DESC"},
	Mutable: []string{
		"first_name", "last_name", "email", "phone", "mobile", "position",
		"status", "source", "address", "city", "state", "country", "postal_code",
		"notes", "company_id", "assigned_to",
	},
	OptionLabel: "first_name || ' ' || last_name",
	OptionOrder: "first_name, last_name",
}

type ContactRepository struct {
	*Repository[models.Contact, models.ContactRow]
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{New[models.Contact, models.ContactRow](db, contactSchema)}
}

// CountByStatus counts contacts per status for the dashboard.
func (r *ContactRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return r.CountBy(ctx, "status")
}
