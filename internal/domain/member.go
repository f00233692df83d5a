package domain

// MemberStatus enumerates the membership lifecycle states the engine
// can target. The store may hold other values; the engine only ever
// compares them as opaque strings.
type MemberStatus string

const (
	MemberActive   MemberStatus = "active"
	MemberInactive MemberStatus = "inactive"
	MemberPending  MemberStatus = "pending"
	MemberQuit     MemberStatus = "quit"
)

// Member is the slice of a member record the delivery engine reads.
// Full member CRUD lives in the surrounding application.
type Member struct {
	ID             string       `json:"id" db:"id"`
	OrganizationID string       `json:"organization_id" db:"organization_id"`
	Email          string       `json:"email" db:"email"`
	FirstName      string       `json:"first_name" db:"first_name"`
	Status         MemberStatus `json:"status" db:"status"`
	Category       string       `json:"category" db:"category"`
}

// Organization is the slice of an organization record the engine reads:
// the sender identity for outbound mail.
type Organization struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	ContactEmail string `json:"contact_email" db:"contact_email"`
}
