package model

import "github.com/google/uuid"

// Actor is the authenticated caller claim supplied by the auth layer.
// The order core trusts it verbatim; token issuance and validation happen
// upstream.
type Actor struct {
	ID      uuid.UUID `json:"id"`
	IsAdmin bool      `json:"isAdmin"`
}

// CanView reports whether the actor may read an order owned by userID.
func (a Actor) CanView(userID uuid.UUID) bool {
	return a.IsAdmin || a.ID == userID
}
