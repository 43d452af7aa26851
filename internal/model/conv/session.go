package conv

import "time"

// Session is one conversation thread between a user and a persona.
// The persona is fixed at creation and framed over every later turn,
// even if a follow-up request names a different one.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	PersonaID string    `json:"personaId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
