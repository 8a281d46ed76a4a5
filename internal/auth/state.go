package auth

import "go-firestore-estate/internal/model"

type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusSignedOut Status = "signed-out"
	StatusSignedIn  Status = "signed-in"
)

// Access is the outcome of the admin route policy for a State.
type Access string

const (
	AccessWait    Access = "wait"
	AccessGranted Access = "granted"
	AccessDenied  Access = "denied"
)

// State is the gate's view of the current session. RoleLoading is only ever set while signed in.
type State struct {
	Seq         uint64          `json:"seq"`
	Status      Status          `json:"status"`
	Identity    *model.Identity `json:"identity,omitempty"`
	Role        string          `json:"role,omitempty"`
	RoleLoading bool            `json:"roleLoading"`
	RoleError   string          `json:"roleError,omitempty"`
}

// Resolved reports whether both the identity and, when signed in, the role are known.
func (s State) Resolved() bool {
	switch s.Status {
	case StatusSignedOut:
		return true
	case StatusSignedIn:
		return !s.RoleLoading
	}
	return false
}

func (s State) IsAdmin() bool {
	return s.Status == StatusSignedIn && !s.RoleLoading && s.Role == model.RoleAdmin
}

// Access never grants while anything is unresolved, and denies explicitly once it is resolved
// and the user is not an admin.
func (s State) Access() Access {
	if !s.Resolved() {
		return AccessWait
	}
	if s.IsAdmin() {
		return AccessGranted
	}
	return AccessDenied
}
