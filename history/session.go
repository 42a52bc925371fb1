package history

import (
	"fmt"
	"time"
)

// Session is a watch session this client joined.
type Session struct {
	Server   string    `json:"server"`
	ID       string    `json:"id"`
	JoinedAt time.Time `json:"joined_at"`
	// Joins counts how often the session was joined from here.
	Joins int `json:"joins"`
}

func (s *Session) encode() string {
	return fmt.Sprintf("%s (%s)", s.ID, s.Server)
}

func (s *Session) String() string {
	return fmt.Sprintf("%s on %s", s.ID, s.Server)
}
