package forms

import (
	"regexp"
	"strings"
)

// emailRegex accepts a simple local@domain.tld shape. Deliverability is the
// transport's problem; this only rejects obvious garbage before any I/O.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// MissingFieldsError lists the required fields absent or empty on a submission.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// InvalidEmailError reports a syntactically invalid submitter email.
type InvalidEmailError struct {
	Value string
}

func (e *InvalidEmailError) Error() string {
	return "invalid email address"
}

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

type requiredField struct {
	name  string
	value string
}

func checkRequired(email string, fields []requiredField) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	if !ValidEmail(email) {
		return &InvalidEmailError{Value: email}
	}
	return nil
}

// Validate checks the application's required fields and email syntax.
// Position, age and country are optional.
func (a *Application) Validate() error {
	return checkRequired(a.EmailAddr, []requiredField{
		{"firstName", a.FirstName},
		{"lastName", a.LastName},
		{"email", a.EmailAddr},
		{"phone", a.Phone},
		{"program", a.Program},
		{"applicationId", a.ApplicationID},
	})
}

// Validate checks the contact message's required fields and email syntax.
// Role is optional.
func (c *Contact) Validate() error {
	return checkRequired(c.EmailAddr, []requiredField{
		{"fullName", c.FullName},
		{"email", c.EmailAddr},
		{"subject", c.Subject},
		{"message", c.Message},
	})
}

// Validate checks the partnership inquiry's required fields and email syntax.
func (p *Partnership) Validate() error {
	return checkRequired(p.EmailAddr, []requiredField{
		{"organizationName", p.OrganizationName},
		{"contactName", p.ContactName},
		{"email", p.EmailAddr},
		{"phone", p.Phone},
		{"partnershipType", p.PartnershipType},
		{"message", p.Message},
	})
}

// Validate checks the visit request's required fields and email syntax.
// Group size and message are optional.
func (v *Visit) Validate() error {
	return checkRequired(v.EmailAddr, []requiredField{
		{"fullName", v.FullName},
		{"email", v.EmailAddr},
		{"phone", v.Phone},
		{"preferredDate", v.PreferredDate},
	})
}
