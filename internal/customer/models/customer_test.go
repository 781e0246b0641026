package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tienda/pkg/domain-errors"
)

func validInput() CustomerInput {
	return CustomerInput{
		FirstName:      "Ana",
		LastName:       "Silva",
		SecondLastName: "Mora",
		NationalID:     "X1234567",
		Email:          "ana@example.com",
		Phone:          "+34 600 000 000",
		TaxID:          "B-7654321",
		BirthDate:      time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		BirthCountry:   "Spain",
	}
}

func TestNewCustomer(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	c, err := NewCustomer(validInput(), now)
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.FirstName)
	assert.Equal(t, now, c.CreatedAt)
	assert.Equal(t, now, c.UpdatedAt)
}

func TestNewCustomer_TrimsWhitespace(t *testing.T) {
	in := validInput()
	in.FirstName = "  Ana  "
	in.Email = " ana@example.com "

	c, err := NewCustomer(in, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.FirstName)
	assert.Equal(t, "ana@example.com", c.Email)
}

func TestNewCustomer_RequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CustomerInput)
	}{
		{"first_name", func(in *CustomerInput) { in.FirstName = "" }},
		{"last_name", func(in *CustomerInput) { in.LastName = "  " }},
		{"second_last_name", func(in *CustomerInput) { in.SecondLastName = "" }},
		{"national_id", func(in *CustomerInput) { in.NationalID = "" }},
		{"email", func(in *CustomerInput) { in.Email = "" }},
		{"phone", func(in *CustomerInput) { in.Phone = "" }},
		{"tax_id", func(in *CustomerInput) { in.TaxID = "" }},
		{"birth_country", func(in *CustomerInput) { in.BirthCountry = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			_, err := NewCustomer(in, time.Now())
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
			assert.Contains(t, err.Error(), tc.name)
		})
	}
}

func TestNewCustomer_RejectsBadEmail(t *testing.T) {
	in := validInput()
	in.Email = "not-an-address"

	_, err := NewCustomer(in, time.Now())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestNewCustomer_RejectsZeroBirthDate(t *testing.T) {
	in := validInput()
	in.BirthDate = time.Time{}

	_, err := NewCustomer(in, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "birth_date")
}

func TestApply(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)
	c, err := NewCustomer(validInput(), created)
	require.NoError(t, err)

	in := validInput()
	in.Phone = "+34 700 111 222"
	require.NoError(t, c.Apply(in, updated))

	assert.Equal(t, "+34 700 111 222", c.Phone)
	assert.Equal(t, created, c.CreatedAt)
	assert.Equal(t, updated, c.UpdatedAt)
}

func TestApply_InvalidInputLeavesTimestamp(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := NewCustomer(validInput(), created)
	require.NoError(t, err)

	in := validInput()
	in.Email = "broken"
	require.Error(t, c.Apply(in, created.Add(time.Hour)))
	assert.Equal(t, created, c.UpdatedAt)
}
