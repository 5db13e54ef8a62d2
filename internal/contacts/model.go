package contacts

import "time"

// Contact is a person who booked an appointment or requested a quote. Shared
// between both workflows and keyed by email.
type Contact struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName returns "First Last" for email templates.
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}
