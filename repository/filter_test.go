package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterConditionsDropEmptyValues(t *testing.T) {
	assert.Equal(t, Conditions{}, ContactFilter{Status: " ", Search: ""}.Conditions())

	assert.Equal(t, Conditions{
		"status":     "lead",
		"search":     "john",
		"company_id": uint(4),
	}, ContactFilter{Status: "lead", Search: " john ", CompanyID: 4}.Conditions())

	assert.Equal(t, Conditions{"stage": "proposal", "contact_id": uint(2)},
		DealFilter{Stage: "proposal", ContactID: 2}.Conditions())

	assert.Equal(t, Conditions{"type": "call", "deal_id": uint(9)},
		ActivityFilter{Type: "call", DealID: 9}.Conditions())

	assert.Equal(t, Conditions{"industry": "Retail"}, CompanyFilter{Industry: "Retail"}.Conditions())
	assert.Equal(t, Conditions{"role": "admin"}, UserFilter{Role: "admin"}.Conditions())
}

func TestRawConditions(t *testing.T) {
	assert.Equal(t, Conditions{"status": "lead", "company_id": uint(3)},
		Raw{"status": "lead", "search": "  ", "company_id": uint(3), "assigned_to": uint(0), "x": nil}.Conditions())
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `50\%`, likeEscaper.Replace("50%"))
	assert.Equal(t, `a\_b`, likeEscaper.Replace("a_b"))
	assert.Equal(t, `c:\\x`, likeEscaper.Replace(`c:\x`))
}
