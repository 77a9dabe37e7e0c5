// Package models defines server-side data models persisted in the database.
package models

import "time"

// Todo is a single task owned by exactly one user.
type Todo struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
}
