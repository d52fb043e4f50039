package models

import "time"

const (
	StageQualification = "qualification"
	StageProposal      = "proposal"
	StageNegotiation   = "negotiation"
	StageClosedWon     = "closed_won"
	StageClosedLost    = "closed_lost"
)

var DealStages = []string{StageQualification, StageProposal, StageNegotiation, StageClosedWon, StageClosedLost}

// Deal is a sales opportunity
type Deal struct {
	Base

	Title       string  `gorm:"size:200;not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Value       float64 `gorm:"type:decimal(12,2);not null;default:0" json:"value"`
	Probability int     `gorm:"not null;default:0" json:"probability"` // percent
	Stage       string  `gorm:"size:30;not null;default:'qualification';index" json:"stage"`

	ExpectedCloseDate *time.Time `gorm:"type:date" json:"expected_close_date"`

	// References
	ContactID  *uint `gorm:"index" json:"contact_id"`
	CompanyID  *uint `gorm:"index" json:"company_id"`
	AssignedTo *uint `gorm:"index" json:"assigned_to"`
	CreatedBy  *uint `gorm:"index" json:"created_by"`
}

// DealRow is a Deal enriched with display fields from joined tables.
type DealRow struct {
	Deal
	ContactName    string `json:"contact_name"`
	CompanyName    string `json:"company_name"`
	AssignedToName string `json:"assigned_to_name"`
}
