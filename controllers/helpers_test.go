package controller

import (
	"testing"

	"crmportal/utils"

	"github.com/stretchr/testify/assert"
)

func TestFilterQuery(t *testing.T) {
	assert.Equal(t, "", filterQuery("status", "", "search", ""))
	assert.Equal(t, "search=o%27neil&status=lead", filterQuery("status", "lead", "search", "o'neil"))
	assert.Equal(t, "stage=proposal", filterQuery("stage", "proposal", "dangling"))
}

func TestIDValue(t *testing.T) {
	id := uint(12)
	assert.Equal(t, "12", idValue(&id))
	assert.Equal(t, "", idValue(nil))
}

func TestDealFormRanges(t *testing.T) {
	for _, tc := range []struct {
		value, probability string
		want               []string
	}{
		{"", "", nil},
		{"100.50", "75", nil},
		{"-1", "0", []string{"value"}},
		{"5", "101", []string{"probability"}},
		{"5", "12.5", []string{"probability"}},
	} {
		errs := utils.FieldErrors{}
		DealForm{Value: tc.value, Probability: tc.probability}.check(errs)

		var got []string
		for field := range errs {
			got = append(got, field)
		}
		assert.ElementsMatch(t, tc.want, got, "%+v", tc)
	}
}

func TestBlankPasswords(t *testing.T) {
	form := blankPasswords(UserForm{Username: "bob", Password: "secret", ConfirmPassword: "secret"})
	assert.Equal(t, "bob", form.Username)
	assert.Empty(t, form.Password)
	assert.Empty(t, form.ConfirmPassword)
}
