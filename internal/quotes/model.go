package quotes

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a quote request.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusSent       Status = "SENT"
	StatusAccepted   Status = "ACCEPTED"
	StatusRejected   Status = "REJECTED"
	StatusExpired    Status = "EXPIRED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSent, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// legalTransitions is the admin-path status machine. Accept/reject are only
// legal from PENDING or PROCESSING; SENT and EXPIRED belong to the separate
// admin workflow.
var legalTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusSent, StatusAccepted, StatusRejected},
	StatusProcessing: {StatusSent, StatusAccepted, StatusRejected},
	StatusSent:       {StatusExpired},
}

// CanTransition reports whether from → to is a legal admin transition.
func CanTransition(from, to Status) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Quote is a quote request moving through the status machine.
type Quote struct {
	ID                 string     `json:"id"`
	ContactID          string     `json:"contactId"`
	ProjectDescription string     `json:"projectDescription"`
	AcceptPhone        bool       `json:"acceptPhone"`
	AcceptTerms        bool       `json:"acceptTerms"`
	Status             Status     `json:"status"`
	QuoteDocument      *string    `json:"quoteDocument,omitempty"`
	QuoteValidUntil    *time.Time `json:"quoteValidUntil,omitempty"`
	RejectionReason    *string    `json:"rejectionReason,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// CreateQuoteRequest is the public quote form payload.
type CreateQuoteRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	AcceptPhone bool   `json:"acceptPhone"`
	AcceptTerms bool   `json:"acceptTerms"`
}

// Validate validates the quote form payload.
func (r *CreateQuoteRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	if strings.TrimSpace(r.Message) == "" {
		return ErrMissingMessage
	}
	if !r.AcceptTerms {
		return ErrTermsRequired
	}
	return nil
}

// ValidateRejectionReason checks a rejection reason before any state change.
func ValidateRejectionReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrMissingReason
	}
	return nil
}

// ListFilter narrows backoffice quote listings.
type ListFilter struct {
	Page   int
	Limit  int
	Status *Status
	Search string
}

// ListResult is a single page of quotes.
type ListResult struct {
	Quotes []*Quote `json:"quotes"`
	Total  int      `json:"total"`
	Page   int      `json:"page"`
	Limit  int      `json:"limit"`
}

// Stats summarizes quotes for the backoffice dashboard.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Sent       int `json:"sent"`
	Accepted   int `json:"accepted"`
	Rejected   int `json:"rejected"`
	Expired    int `json:"expired"`
}
