package core

import (
	"errors"
	"strings"
	"time"
)

const (
	KindLead      RecordKind = "leads"
	KindQuotation RecordKind = "quotations"

	StatusPending  PaymentStatus = "Pending"
	StatusAccepted PaymentStatus = "Accepted"
	StatusRejected PaymentStatus = "Rejected"

	RoleSuperAdmin     Role = "super-admin"
	RoleAdmin          Role = "admin"
	RoleCountryManager Role = "country-manager"
	RoleAgent          Role = "agent"
	RoleSubAgent       Role = "sub-agent"
)

type (
	RecordKind    string
	PaymentStatus string
	Role          string

	// Course is a course line on a lead or quotation.
	Course struct {
		Name       string `json:"name" bson:"name"`
		University string `json:"university,omitempty" bson:"university,omitempty"`
		Intake     string `json:"intake,omitempty" bson:"intake,omitempty"`
		CourseFee  Amount `json:"courseFee" bson:"courseFee"`
	}

	// Service is an extra billable service (visa filing, insurance, ...).
	Service struct {
		Name   string `json:"name" bson:"name"`
		Amount Amount `json:"amount" bson:"amount"`
	}

	// PaymentProof is one entry of a record's transcript: evidence of a
	// partial or full payment. Nothing ties it to the amount due.
	PaymentProof struct {
		Amount  Amount `json:"amount" bson:"amount"`
		Method  string `json:"method,omitempty" bson:"method,omitempty"`
		FileURL string `json:"fileUrl,omitempty" bson:"fileUrl,omitempty"`
	}

	Home struct {
		Country string `json:"country" bson:"country"`
		City    string `json:"city,omitempty" bson:"city,omitempty"`
		Address string `json:"address,omitempty" bson:"address,omitempty"`
	}

	// Record is a lead or a quotation. Both share one shape.
	Record struct {
		ID                string         `json:"id" bson:"_id"`
		Kind              RecordKind     `json:"kind" bson:"kind"`
		LeadID            string         `json:"leadId,omitempty" bson:"leadId,omitempty"`
		Student           string         `json:"student" bson:"student"`
		Email             string         `json:"email,omitempty" bson:"email,omitempty"`
		Phone             string         `json:"phone,omitempty" bson:"phone,omitempty"`
		Home              Home           `json:"home" bson:"home"`
		Course            []Course       `json:"course" bson:"course"`
		Services          []Service      `json:"services" bson:"services"`
		Discount          Amount         `json:"discount,omitempty" bson:"discount,omitempty"`
		Transcript        []PaymentProof `json:"transcript" bson:"transcript"`
		PaymentStatus     PaymentStatus  `json:"paymentStatus" bson:"paymentStatus"`
		PaymentAcceptedAt *time.Time     `json:"paymentAcceptedAt" bson:"paymentAcceptedAt"`
		Progress          string         `json:"progress,omitempty" bson:"progress,omitempty"`
		Note              string         `json:"note,omitempty" bson:"note,omitempty"`
		Author            string         `json:"author" bson:"author"`
		CreatedAt         time.Time      `json:"createdAt" bson:"createdAt"`
		UpdatedAt         time.Time      `json:"updatedAt" bson:"updatedAt"`
	}

	// Profile is a staff member, agent or sub-agent.
	Profile struct {
		Email       string    `json:"email" bson:"_id"`
		Name        string    `json:"name" bson:"name"`
		Role        Role      `json:"role" bson:"role"`
		Country     string    `json:"country,omitempty" bson:"country,omitempty"`
		Parent      string    `json:"parent,omitempty" bson:"parent,omitempty"` // owning agent of a sub-agent
		SalesTarget Amount    `json:"salesTarget,omitempty" bson:"salesTarget,omitempty"`
		CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidKind     = errors.New("invalid record kind")
	ErrInvalidStatus   = errors.New("invalid payment status")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrInvalidGrouping = errors.New("invalid grouping")
	ErrEmptyAuthor     = errors.New("empty author")
	ErrEmptyStudent    = errors.New("empty student name")
	ErrEmptyEmail      = errors.New("empty email")
	ErrStudentTooLong  = errors.New("student name too long (max 200 characters)")
	ErrMissingParent   = errors.New("sub-agent requires a parent agent")
	ErrNotALead        = errors.New("record is not a lead")
)

// IsValidationError reports whether err is a field-level problem with a
// record or profile, as opposed to a bad request or a storage failure.
func IsValidationError(err error) bool {
	for _, target := range []error{ErrEmptyStudent, ErrStudentTooLong, ErrEmptyAuthor, ErrEmptyEmail, ErrInvalidRole, ErrMissingParent, ErrNotALead} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ParseRecordKind accepts "leads"/"lead" and "quotations"/"quotation".
func ParseRecordKind(s string) (RecordKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "leads", "lead":
		return KindLead, nil
	case "quotations", "quotation":
		return KindQuotation, nil
	}
	return "", ErrInvalidKind
}

func (k RecordKind) IsValid() bool {
	return k == KindLead || k == KindQuotation
}

func (k RecordKind) String() string {
	return string(k)
}

// ParsePaymentStatus is case-insensitive. The empty string is Pending.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pending":
		return StatusPending, nil
	case "accepted":
		return StatusAccepted, nil
	case "rejected":
		return StatusRejected, nil
	}
	return "", ErrInvalidStatus
}

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleCountryManager, RoleAgent, RoleSubAgent:
		return true
	}
	return false
}

// IsPrivileged reports whether the role may change payment status.
func (r Role) IsPrivileged() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

func (r Record) Validate() error {
	if !r.Kind.IsValid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(r.Student) == "" {
		return ErrEmptyStudent
	}
	if len(r.Student) > 200 {
		return ErrStudentTooLong
	}
	if strings.TrimSpace(r.Author) == "" {
		return ErrEmptyAuthor
	}
	if _, err := ParsePaymentStatus(string(r.PaymentStatus)); err != nil {
		return err
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Email) == "" {
		return ErrEmptyEmail
	}
	if !p.Role.IsValid() {
		return ErrInvalidRole
	}
	if p.Role == RoleSubAgent && strings.TrimSpace(p.Parent) == "" {
		return ErrMissingParent
	}
	return nil
}

// Clone returns a deep copy so stores never share slices with callers.
func (r Record) Clone() Record {
	out := r
	out.Course = append([]Course(nil), r.Course...)
	out.Services = append([]Service(nil), r.Services...)
	out.Transcript = append([]PaymentProof(nil), r.Transcript...)
	if r.PaymentAcceptedAt != nil {
		t := *r.PaymentAcceptedAt
		out.PaymentAcceptedAt = &t
	}
	return out
}
