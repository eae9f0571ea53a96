package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validApplication() *Application {
	return &Application{
		FirstName:     "Karim",
		LastName:      "Diallo",
		EmailAddr:     "karim.diallo@example.com",
		Phone:         "+221770000000",
		Program:       "U17 Elite",
		ApplicationID: "APP-2026-0042",
	}
}

func TestApplicationValidate(t *testing.T) {
	assert.NoError(t, validApplication().Validate())

	t.Run("optional fields may be empty", func(t *testing.T) {
		a := validApplication()
		a.Position = ""
		a.Age = 0
		a.Country = ""
		assert.NoError(t, a.Validate())
	})

	t.Run("missing fields listed", func(t *testing.T) {
		a := validApplication()
		a.FirstName = ""
		a.Phone = "  "
		a.ApplicationID = ""

		err := a.Validate()
		var mfe *MissingFieldsError
		require.ErrorAs(t, err, &mfe)
		assert.Equal(t, []string{"firstName", "phone", "applicationId"}, mfe.Fields)
	})

	t.Run("invalid email", func(t *testing.T) {
		a := validApplication()
		a.EmailAddr = "not-an-email"

		err := a.Validate()
		var iee *InvalidEmailError
		require.ErrorAs(t, err, &iee)
	})
}

func TestContactValidate(t *testing.T) {
	c := &Contact{
		FullName:  "Ana Costa",
		EmailAddr: "ana@example.com",
		Subject:   "Trial sessions",
		Message:   "When is the next open trial?",
	}
	assert.NoError(t, c.Validate())

	c.Subject = ""
	c.Message = ""
	err := c.Validate()
	var mfe *MissingFieldsError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, []string{"subject", "message"}, mfe.Fields)
}

func TestPartnershipValidate(t *testing.T) {
	p := &Partnership{
		OrganizationName: "Northside Sports Ltd",
		ContactName:      "J. Weber",
		EmailAddr:        "j.weber@northside.example",
		Phone:            "+4915200000000",
		PartnershipType:  "equipment",
		Message:          "Interested in a kit sponsorship.",
	}
	assert.NoError(t, p.Validate())

	p.OrganizationName = ""
	err := p.Validate()
	var mfe *MissingFieldsError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, []string{"organizationName"}, mfe.Fields)
}

func TestVisitValidate(t *testing.T) {
	v := &Visit{
		FullName:      "Sam Ortega",
		EmailAddr:     "sam.ortega@example.com",
		Phone:         "+34600000000",
		PreferredDate: "2026-09-15",
	}
	assert.NoError(t, v.Validate())

	v.PreferredDate = ""
	err := v.Validate()
	var mfe *MissingFieldsError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, []string{"preferredDate"}, mfe.Fields)
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		ok    bool
	}{
		{"a@b.co", true},
		{"first.last+tag@sub.domain.org", true},
		{"not-an-email", false},
		{"missing@tld", false},
		{"@nodomain.com", false},
		{"spaces in@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, ValidEmail(tt.email), tt.email)
	}
}
