// Package forms models the lead-capture submissions accepted by the public
// site: admissions applications, contact messages, partnership inquiries and
// visit requests. Each form type is a distinct struct with a fixed field set
// validated at the boundary.
package forms

import (
	"time"

	"github.com/google/uuid"
)

// FormType identifies one of the public submission forms.
type FormType string

const (
	TypeApplication FormType = "application"
	TypeContact     FormType = "contact"
	TypePartnership FormType = "partnership"
	TypeVisit       FormType = "visit"
)

// ValidTypes lists every accepted form type, in display order.
var ValidTypes = []FormType{TypeApplication, TypeContact, TypePartnership, TypeVisit}

// Submission is implemented by every form variant. Email returns the
// submitter address the acknowledgment goes to; Summary is a short line for
// notification subjects and admin listings.
type Submission interface {
	Type() FormType
	Email() string
	Summary() string
	Fields() []Field
	Validate() error
}

// Application is an admissions application for one of the academy programs.
type Application struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	EmailAddr     string `json:"email"`
	Phone         string `json:"phone"`
	Program       string `json:"program"`
	Position      string `json:"position,omitempty"`
	Age           int    `json:"age,omitempty"`
	Country       string `json:"country,omitempty"`
	ApplicationID string `json:"applicationId"`
}

func (a *Application) Type() FormType { return TypeApplication }
func (a *Application) Email() string  { return a.EmailAddr }
func (a *Application) Summary() string {
	return a.FirstName + " " + a.LastName + " — " + a.Program
}

// Contact is a general inquiry from the contact page.
type Contact struct {
	FullName  string `json:"fullName"`
	EmailAddr string `json:"email"`
	Subject   string `json:"subject"`
	Role      string `json:"role,omitempty"`
	Message   string `json:"message"`
}

func (c *Contact) Type() FormType  { return TypeContact }
func (c *Contact) Email() string   { return c.EmailAddr }
func (c *Contact) Summary() string { return c.FullName + " — " + c.Subject }

// Partnership is a sponsorship or partnership inquiry from an organization.
type Partnership struct {
	OrganizationName string `json:"organizationName"`
	ContactName      string `json:"contactName"`
	EmailAddr        string `json:"email"`
	Phone            string `json:"phone"`
	PartnershipType  string `json:"partnershipType"`
	Message          string `json:"message"`
}

func (p *Partnership) Type() FormType  { return TypePartnership }
func (p *Partnership) Email() string   { return p.EmailAddr }
func (p *Partnership) Summary() string { return p.OrganizationName + " — " + p.PartnershipType }

// Visit is a campus visit request.
type Visit struct {
	FullName      string `json:"fullName"`
	EmailAddr     string `json:"email"`
	Phone         string `json:"phone"`
	PreferredDate string `json:"preferredDate"`
	GroupSize     int    `json:"groupSize,omitempty"`
	Message       string `json:"message,omitempty"`
}

func (v *Visit) Type() FormType  { return TypeVisit }
func (v *Visit) Email() string   { return v.EmailAddr }
func (v *Visit) Summary() string { return v.FullName + " — " + v.PreferredDate }

// Record is a persisted submission row.
type Record struct {
	ID             uuid.UUID `json:"id"`
	FormType       FormType  `json:"formType"`
	SubmitterEmail string    `json:"submitterEmail"`
	Summary        string    `json:"summary"`
	Payload        []byte    `json:"payload"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DashboardStats aggregates submission activity for the admin dashboard.
type DashboardStats struct {
	Total      int              `json:"total"`
	Last7Days  int              `json:"last7Days"`
	Last30Days int              `json:"last30Days"`
	ByType     map[FormType]int `json:"byType"`
	Recent     []*Record        `json:"recent"`
}
