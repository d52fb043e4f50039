package repository

import (
	"context"

	"crmportal/models"

	"gorm.io/gorm"
)

// DealFilter holds the recognized filters of the deal list.
type DealFilter struct {
	Stage      string
	Search     string
	AssignedTo uint
	ContactID  uint
	CompanyID  uint
}

func (f DealFilter) Conditions() Conditions {
	c := Conditions{}
	c.set("stage", f.Stage)
	c.set("search", f.Search)
	c.setID("assigned_to", f.AssignedTo)
	c.setID("contact_id", f.ContactID)
	c.setID("company_id", f.CompanyID)
	return c
}

var dealSchema = Schema{
	Table: "deals",
	Alias: "d",
	Columns: []string{
		"d.*",
		"COALESCE(ct.first_name || ' ' || ct.last_name, '') AS contact_name",
		"COALESCE(co.name, '') AS company_name",
		"COALESCE(au.first_name || ' ' || au.last_name, '') AS assigned_to_name",
	},
	Joins: []string{
		"LEFT JOIN contacts ct ON ct.id = d.contact_id",
		"LEFT JOIN companies co ON co.id = d.company_id",
		"LEFT JOIN users au ON au.id = d.assigned_to",
	},
	Predicates: map[string]Predicate{
		"stage":       Exact{Column: "d.stage"},
		"search":      Search{Columns: []string{"d.title", "d.description"}},
		"assigned_to": Exact{Column: "d.assigned_to"},
		"contact_id":  Exact{Column: "d.contact_id"},
		"company_id":  Exact{Column: "d.company_id"},
	},
	Order: []string{"d.created_at DESC", "d.id DESC"},
	Mutable: []string{
		"title", "description", "value", "probability", "stage",
		"expected_close_date", "contact_id", "company_id", "assigned_to",
	},
	OptionLabel: "title",
	OptionOrder: "title",
}

type DealRepository struct {
	*Repository[models.Deal, models.DealRow]
}

func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{New[models.Deal, models.DealRow](db, dealSchema)}
}

// CountByStage counts deals per pipeline stage.
func (r *DealRepository) CountByStage(ctx context.Context) (map[string]int64, error) {
	return r.CountBy(ctx, "stage")
}

// ValueByStage sums deal value per pipeline stage.
func (r *DealRepository) ValueByStage(ctx context.Context) (map[string]float64, error) {
	return r.SumBy(ctx, "stage", "value")
}
