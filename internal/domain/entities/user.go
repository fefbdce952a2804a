package entities

import "time"

// User is the learner identity as seen by progress tracking.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
