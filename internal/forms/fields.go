package forms

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Field is one labeled value of a submission, in display order. The email
// templates and the admin console render submissions from these rather than
// poking at the raw payload.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Fields returns the application's values in display order. Optional fields
// are included only when set.
func (a *Application) Fields() []Field {
	fields := []Field{
		{"First name", a.FirstName},
		{"Last name", a.LastName},
		{"Email", a.EmailAddr},
		{"Phone", a.Phone},
		{"Program", a.Program},
		{"Application ID", a.ApplicationID},
	}
	if a.Position != "" {
		fields = append(fields, Field{"Position", a.Position})
	}
	if a.Age > 0 {
		fields = append(fields, Field{"Age", strconv.Itoa(a.Age)})
	}
	if a.Country != "" {
		fields = append(fields, Field{"Country", a.Country})
	}
	return fields
}

// Fields returns the contact message's values in display order.
func (c *Contact) Fields() []Field {
	fields := []Field{
		{"Full name", c.FullName},
		{"Email", c.EmailAddr},
		{"Subject", c.Subject},
	}
	if c.Role != "" {
		fields = append(fields, Field{"Role", c.Role})
	}
	return append(fields, Field{"Message", c.Message})
}

// Fields returns the partnership inquiry's values in display order.
func (p *Partnership) Fields() []Field {
	return []Field{
		{"Organization", p.OrganizationName},
		{"Contact name", p.ContactName},
		{"Email", p.EmailAddr},
		{"Phone", p.Phone},
		{"Partnership type", p.PartnershipType},
		{"Message", p.Message},
	}
}

// Fields returns the visit request's values in display order.
func (v *Visit) Fields() []Field {
	fields := []Field{
		{"Full name", v.FullName},
		{"Email", v.EmailAddr},
		{"Phone", v.Phone},
		{"Preferred date", v.PreferredDate},
	}
	if v.GroupSize > 0 {
		fields = append(fields, Field{"Group size", strconv.Itoa(v.GroupSize)})
	}
	if v.Message != "" {
		fields = append(fields, Field{"Message", v.Message})
	}
	return fields
}

// Label returns the human-readable form name used in email subjects and the
// admin console.
func (t FormType) Label() string {
	switch t {
	case TypeApplication:
		return "Admissions Application"
	case TypeContact:
		return "Contact Message"
	case TypePartnership:
		return "Partnership Inquiry"
	case TypeVisit:
		return "Visit Request"
	default:
		return string(t)
	}
}

// Decode reconstructs a submission variant from a persisted payload. The
// outbox worker uses this to recompose emails for retried legs.
func Decode(formType FormType, payload []byte) (Submission, error) {
	var sub Submission
	switch formType {
	case TypeApplication:
		sub = &Application{}
	case TypeContact:
		sub = &Contact{}
	case TypePartnership:
		sub = &Partnership{}
	case TypeVisit:
		sub = &Visit{}
	default:
		return nil, fmt.Errorf("unknown form type %q", formType)
	}
	if err := json.Unmarshal(payload, sub); err != nil {
		return nil, err
	}
	return sub, nil
}
