package tokens

import "time"

// EntityType identifies which kind of entity an action token targets.
type EntityType string

const (
	EntityAppointment EntityType = "appointment"
	EntityQuote       EntityType = "quote"
)

// Actions embedded in notification links.
const (
	ActionAccept     = "accept"
	ActionReject     = "reject"
	ActionReschedule = "reschedule"
)

// ActionToken is a single-use, time-bounded credential authorizing one state
// transition on one entity. Rows are never deleted; consumed tokens stay as an
// audit trail.
type ActionToken struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	Type      EntityType `json:"type"`
	EntityID  string     `json:"entityId"`
	Action    string     `json:"action"`
	ExpiresAt time.Time  `json:"expiresAt"`
	IsUsed    bool       `json:"isUsed"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
