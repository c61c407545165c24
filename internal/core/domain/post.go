package domain

import "time"

// TitleMaxLength is the upper bound on a post title, counted in runes.
const TitleMaxLength = 256

// Post is the only aggregate of the service. ID is assigned by the store.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether the principal id is the post's author.
func (p *Post) OwnedBy(principalID string) bool {
	return principalID != "" && p.AuthorID == principalID
}

// Touch refreshes UpdatedAt, never moving it before CreatedAt or backwards.
func (p *Post) Touch(now time.Time) {
	if now.Before(p.UpdatedAt) {
		return
	}
	if now.Before(p.CreatedAt) {
		now = p.CreatedAt
	}
	p.UpdatedAt = now
}
