package reminders

import "time"

// Reminder tracks the single day-before reminder of one appointment.
// ProviderRef is the scheduler job ID, kept so a reschedule can cancel the
// previous job before enqueueing the new one.
type Reminder struct {
	ID            string     `json:"id"`
	AppointmentID string     `json:"appointmentId"`
	DueAt         time.Time  `json:"dueAt"`
	ProviderRef   *string    `json:"providerRef,omitempty"`
	SentAt        *time.Time `json:"sentAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
