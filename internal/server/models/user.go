package models

import "time"

// User is a registered principal. Only the salt and verifier derived from the
// password are stored.
type User struct {
	ID        int64
	UserName  string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}
