package conv

import "time"

// User owns zero or more sessions. Created on first contact from an
// unknown identity, never deleted by the dispatch flow.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity is what an inbound request knows about the sender: an explicit
// user id, an (email, name) pair, or nothing at all.
type Identity struct {
	ID    string
	Email string
	Name  string
}
