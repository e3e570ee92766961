// Package model defines the data structures used throughout the application.
package model

import "time"

// User is the minimal identity record we keep for a reporter.
//
// We use GitHub OAuth as the identity provider, and the only thing we need
// from GitHub is the access token itself: issues are filed with it, so there
// is no reason to store profile data. We still generate our own internal
// string ID (xid) so our primary keys are not tied to a third party's
// numbering scheme.
//
// WHY IS AccessToken THE LOOKUP KEY?
// The callback hands us a token and nothing else. A user is "the same user"
// exactly when GitHub hands back the same token value, so the users table
// carries a UNIQUE constraint on access_token and lookup-or-create is keyed
// on it. The token is mutable: every successful callback overwrites it on the
// resolved user, which covers token rotation.
type User struct {
	ID          string    `json:"id"        db:"id"`
	AccessToken string    `json:"-"         db:"access_token"` // never serialized
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
