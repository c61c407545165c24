package domain

import "time"

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// User is an account a principal is derived from. Local accounts carry a
// password hash; external ones carry the provider's subject id.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username,omitempty"`
	Name            string    `json:"name,omitempty"`
	Email           string    `json:"email,omitempty"`
	PasswordHash    string    `json:"-"`
	Provider        string    `json:"provider"`
	ProviderSubject string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Principal projects the user onto the identity the post core works with.
func (u *User) Principal() *Principal {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	return &Principal{ID: u.ID, Name: name, Email: u.Email}
}

// ExternalIdentity is what an OAuth provider vouches for after a code exchange.
type ExternalIdentity struct {
	Provider string
	Subject  string
	Name     string
	Email    string
}
