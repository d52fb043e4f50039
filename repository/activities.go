package repository

import (
	"context"
	"fmt"
	"time"

	"crmportal/models"

	"gorm.io/gorm"
)

// ActivityFilter holds the recognized filters of the activity list.
type ActivityFilter struct {
	Type       string
	Status     string
	ContactID  uint
	CompanyID  uint
	DealID     uint
	AssignedTo uint
}

func (f ActivityFilter) Conditions() Conditions {
	c := Conditions{}
	c.set("type", f.Type)
	c.set("status", f.Status)
	c.setID("contact_id", f.ContactID)
	c.setID("company_id", f.CompanyID)
	c.setID("deal_id", f.DealID)
	c.setID("assigned_to", f.AssignedTo)
	return c
}

var activitySchema = Schema{
	Table: "activities",
	Alias: "a",
	Columns: []string{
		"a.*",
		"COALESCE(ct.first_name || ' ' || ct.last_name, '') AS contact_name",
		"COALESCE(co.name, '') AS company_name",
		"COALESCE(d.title, '') AS deal_title",
		"COALESCE(au.first_name || ' ' || au.last_name, '') AS assigned_to_name",
	},
	Joins: []string{
		"LEFT JOIN contacts ct ON ct.id = a.contact_id",
		"LEFT JOIN companies co ON co.id = a.company_id",
		"LEFT JOIN deals d ON d.id = a.deal_id",
		"LEFT JOIN users au ON au.id = a.assigned_to",
	},
	Predicates: map[string]Predicate{
		"type":        Exact{Column: "a.type"},
		"status":      Exact{Column: "a.status"},
		"contact_id":  Exact{Column: "a.contact_id"},
		"company_id":  Exact{Column: "a.company_id"},
		"deal_id":     Exact{Column: "a.deal_id"},
		"assigned_to": Exact{Column: "a.assigned_to"},
	},
	Order: []string{"a.scheduled_at DESC", "a.created_at DESC", "a.id DESC"},
	Mutable: []string{
		"type", "subject", "description", "scheduled_at", "status",
		"contact_id", "company_id", "deal_id", "assigned_to",
	},
	OptionLabel: "subject",
	OptionOrder: "subject",
}

type ActivityRepository struct {
	*Repository[models.Activity, models.ActivityRow]
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{New[models.Activity, models.ActivityRow](db, activitySchema)}
}

// Upcoming lists scheduled activities of a user due at or after now,
// soonest first.
func (r *ActivityRepository) Upcoming(ctx context.Context, userID uint, now time.Time, limit int) ([]models.ActivityRow, error) {
	var rows []models.ActivityRow
	q := r.rows(ctx, ActivityFilter{Status: models.ActivityScheduled, AssignedTo: userID}).
		Where("a.scheduled_at >= ?", now).
		Order("a.scheduled_at ASC").
		Order("a.id ASC")
	if err := windowed(q, Window{Limit: limit}).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("upcoming activities: %w", err)
	}
	return rows, nil
}
