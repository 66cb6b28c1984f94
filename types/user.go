package types

import "time"

// UserStatusActive is the status every user is created with.
const UserStatusActive = "Active"

// User represents a stored user record.
type User struct {
	// ID is the unique identifier assigned by the record store.
	ID int64 `json:"id" db:"id"`

	// Name is the submitted display name. It is stored as-is.
	Name string `json:"name" db:"name"`

	// Email is the submitted email address. No format or uniqueness rules apply.
	Email string `json:"email" db:"email"`

	// PhotoURL is the blob key of the uploaded photo, or nil when none was submitted.
	PhotoURL *string `json:"photo_url" db:"photo_url"`

	// Status is the lifecycle status of the user.
	Status string `json:"status" db:"status"`

	// CreatedAt is the timestamp assigned by the record store at insertion time.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewUser carries the caller-supplied fields of a user about to be inserted.
// Nil Name or Email are persisted as NULL so the schema decides acceptance.
type NewUser struct {
	Name     *string
	Email    *string
	PhotoURL *string
	Status   string
}
