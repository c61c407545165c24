package domain

// Principal is an authenticated identity with a stable id.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Caller is the identity a lifecycle operation runs on behalf of. The zero
// value is an anonymous caller.
type Caller struct {
	Principal *Principal
}

// Anonymous returns a caller with no principal.
func Anonymous() Caller { return Caller{} }

// AsPrincipal returns a caller authenticated as p.
func AsPrincipal(p *Principal) Caller { return Caller{Principal: p} }

// Authenticated reports whether the caller carries a usable principal.
func (c Caller) Authenticated() bool {
	return c.Principal != nil && c.Principal.ID != ""
}

// ID returns the principal id, or "" for anonymous callers.
func (c Caller) ID() string {
	if !c.Authenticated() {
		return ""
	}
	return c.Principal.ID
}
