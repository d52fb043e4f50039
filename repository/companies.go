package repository

import (
	"crmportal/models"

	"gorm.io/gorm"
)

// CompanyFilter holds the recognized filters of the company list.
type CompanyFilter struct {
	Search   string
	Industry string
}

func (f CompanyFilter) Conditions() Conditions {
	c := Conditions{}
	c.set("search", f.Search)
	c.set("industry", f.Industry)
	return c
}

var companySchema = Schema{
	Table: "companies",
	Alias: "co",
	Columns: []string{
		"co.*",
		"COALESCE(cu.first_name || ' ' || cu.last_name, '') AS created_by_name",
	},
	Joins: []string{
		"LEFT JOIN users cu ON cu.id = co.created_by",
	},
	Predicates: map[string]Predicate{
		"search":   Search{Columns: []string{"co.name", "co.email", "co.industry"}},
		"industry": Exact{Column: "co.industry"},
	},
	Order: []string{"co.created_at DESC", "co.id DESC"},
	Mutable: []string{
		"name", "industry", "website", "phone", "email",
		"address", "city", "state", "country", "postal_code", "notes",
	},
	OptionLabel: "name",
	OptionOrder: "name",
}

type CompanyRepository struct {
	*Repository[models.Company, models.CompanyRow]
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{New[models.Company, models.CompanyRow](db, companySchema)}
}
