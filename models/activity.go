package models

import (
	"errors"
	"fmt"
	"time"
)

const (
	ActivityCall    = "call"
	ActivityMeeting = "meeting"
	ActivityEmail   = "email"
	ActivityTask    = "task"
	ActivityNote    = "note"

	ActivityScheduled = "scheduled"
	ActivityCompleted = "completed"
	ActivityCancelled = "cancelled"
)

// ErrStatusLocked is returned when a completed or cancelled activity is
// moved to another status.
var ErrStatusLocked = errors.New("only scheduled activities can change status")

var (
	ActivityTypes    = []string{ActivityCall, ActivityMeeting, ActivityEmail, ActivityTask, ActivityNote}
	ActivityStatuses = []string{ActivityScheduled, ActivityCompleted, ActivityCancelled}
)

// Activity tracks a call, meeting, email, task or note
type Activity struct {
	Base

	Type        string     `gorm:"size:20;not null;index" json:"type"`
	Subject     string     `gorm:"size:200;not null" json:"subject"`
	Description string     `gorm:"type:text" json:"description"`
	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at"`
	Status      string     `gorm:"size:20;not null;default:'scheduled';index" json:"status"`
	CompletedAt *time.Time `json:"completed_at"`

	// References
	ContactID  *uint `gorm:"index" json:"contact_id"`
	CompanyID  *uint `gorm:"index" json:"company_id"`
	DealID     *uint `gorm:"index" json:"deal_id"`
	AssignedTo *uint `gorm:"index" json:"assigned_to"`
	CreatedBy  *uint `gorm:"index" json:"created_by"`
}

// ExtraUpdateColumns adds completed_at only to the update that marks the
// activity completed.
func (a *Activity) ExtraUpdateColumns() []string {
	if a.Status == ActivityCompleted && a.CompletedAt != nil {
		return []string{"completed_at"}
	}
	return nil
}

// Transition moves the activity to status, stamping completed_at when it
// becomes completed. Only scheduled activities may change status.
func (a *Activity) Transition(status string, now time.Time) error {
	if status == a.Status {
		return nil
	}
	if a.Status != ActivityScheduled && a.Status != "" {
		return fmt.Errorf("%w: %s to %s", ErrStatusLocked, a.Status, status)
	}
	a.Status = status
	if status == ActivityCompleted {
		a.CompletedAt = &now
	}
	return nil
}

// ActivityRow is an Activity enriched with display fields from joined tables.
type ActivityRow struct {
	Activity
	ContactName    string `json:"contact_name"`
	CompanyName    string `json:"company_name"`
	DealTitle      string `json:"deal_title"`
	AssignedToName string `json:"assigned_to_name"`
}
