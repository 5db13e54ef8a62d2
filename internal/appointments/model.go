package appointments

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an appointment request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Appointment reasons offered by the public booking form.
const (
	ReasonMaintenance  = "MAINTENANCE"
	ReasonInstallation = "INSTALLATION"
	ReasonRepair       = "DEPANNAGE"
	ReasonOther        = "AUTRE"
)

// Appointment is a client-requested visit moving through the
// PENDING → CONFIRMED/CANCELLED status machine. CANCELLED is terminal.
type Appointment struct {
	ID          string     `json:"id"`
	ContactID   string     `json:"contactId"`
	Reason      string     `json:"reason"`
	ReasonOther string     `json:"reasonOther,omitempty"`
	Message     string     `json:"message,omitempty"`
	Timezone    string     `json:"timezone"`
	Status      Status     `json:"status"`
	RequestedAt time.Time  `json:"requestedAt"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	// ProposedAt carries a pending reschedule proposal awaiting the client's
	// confirmation. It never flips Status by itself.
	ProposedAt *time.Time `json:"proposedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// CreateAppointmentRequest is the public booking form payload.
type CreateAppointmentRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Reason      string `json:"reason,omitempty"`
	ReasonOther string `json:"reasonOther,omitempty"`
	Message     string `json:"message,omitempty"`
	Consent     bool   `json:"consent"`
}

// Validate validates the booking form payload.
func (r *CreateAppointmentRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	if !r.Consent {
		return ErrConsentRequired
	}
	return nil
}

// Stats summarizes appointments for the backoffice dashboard.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
	Upcoming  int `json:"upcoming"`
}
