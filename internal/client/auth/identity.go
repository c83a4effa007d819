package auth

import "github.com/ShiyouQi888/on-tab/internal/common"

// Profile carries optional user-level presentation data.
type Profile struct {
	AvatarURL string `json:"avatar_url"`
}

// User is the authenticated session subject as issued by the identity
// provider.
type User struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Profile Profile `json:"profile"`
}

// Identity is the effective acting identity: either an authenticated user
// or the device-local guest. The zero value is the guest.
type Identity struct {
	user *User
}

// Authenticated wraps a user into an identity.
func Authenticated(u *User) Identity {
	return Identity{user: u}
}

// Guest returns the anonymous identity.
func Guest() Identity {
	return Identity{}
}

// IsAuthenticated reports whether a session is active.
func (i Identity) IsAuthenticated() bool {
	return i.user != nil
}

// User returns the session subject, or nil for the guest.
func (i Identity) User() *User {
	return i.user
}

// OwnerID returns the id under which this identity's records are stored:
// the user id when authenticated, the shared guest sentinel otherwise.
func (i Identity) OwnerID() string {
	if i.user != nil {
		return i.user.ID
	}
	return common.GuestOwnerID
}
