package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	dErrors "tienda/pkg/domain-errors"
)

// Customer is a person the shop sells to. Customers are created and edited
// independently of sales; a sale only holds a reference.
//
// Invariants:
//   - every text field is non-empty
//   - Email has a parseable address shape
//   - BirthDate is a valid, non-zero date
type Customer struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	SecondLastName string    `json:"second_last_name"`
	NationalID     string    `json:"national_id"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	TaxID          string    `json:"tax_id"`
	BirthDate      time.Time `json:"birth_date"`
	BirthCountry   string    `json:"birth_country"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CustomerInput carries the mutable customer fields for create and update.
type CustomerInput struct {
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	SecondLastName string    `json:"second_last_name"`
	NationalID     string    `json:"national_id"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	TaxID          string    `json:"tax_id"`
	BirthDate      time.Time `json:"birth_date"`
	BirthCountry   string    `json:"birth_country"`
}

// Normalize trims surrounding whitespace from all text fields.
func (in *CustomerInput) Normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.SecondLastName = strings.TrimSpace(in.SecondLastName)
	in.NationalID = strings.TrimSpace(in.NationalID)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.TaxID = strings.TrimSpace(in.TaxID)
	in.BirthCountry = strings.TrimSpace(in.BirthCountry)
}

// Validate enforces the customer field invariants.
func (in *CustomerInput) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"second_last_name", in.SecondLastName},
		{"national_id", in.NationalID},
		{"email", in.Email},
		{"phone", in.Phone},
		{"tax_id", in.TaxID},
		{"birth_country", in.BirthCountry},
	}
	for _, r := range required {
		if r.value == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, r.field+" cannot be empty")
		}
	}
	if !govalidator.IsEmail(in.Email) {
		return dErrors.New(dErrors.CodeInvariantViolation, "email is not a valid address")
	}
	if in.BirthDate.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "birth_date is required")
	}
	return nil
}

// NewCustomer constructs a Customer from validated input.
func NewCustomer(in CustomerInput, now time.Time) (*Customer, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &Customer{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		SecondLastName: in.SecondLastName,
		NationalID:     in.NationalID,
		Email:          in.Email,
		Phone:          in.Phone,
		TaxID:          in.TaxID,
		BirthDate:      in.BirthDate,
		BirthCountry:   in.BirthCountry,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Apply copies validated input onto an existing customer.
func (c *Customer) Apply(in CustomerInput, now time.Time) error {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.SecondLastName = in.SecondLastName
	c.NationalID = in.NationalID
	c.Email = in.Email
	c.Phone = in.Phone
	c.TaxID = in.TaxID
	c.BirthDate = in.BirthDate
	c.BirthCountry = in.BirthCountry
	c.UpdatedAt = now
	return nil
}
