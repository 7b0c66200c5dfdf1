package models

import "time"

// User is a registered account. Records are created once at registration
// and never modified; PasswordDigest is the hasher output, never the raw
// password.
type User struct {
	ID             string
	Email          string
	PasswordDigest string
	CreatedAt      time.Time
}
