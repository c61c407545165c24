package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error   string          `json:"error"`
	Kind    string          `json:"kind,omitempty"`
	Details []fieldResponse `json:"details,omitempty"`
}

type fieldResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// --- Request / Response types ---

// postRequest is the create and update payload. Title is checked by the
// service so that create and update share one rule set.
type postRequest struct {
	Title     string  `json:"title"`
	Content   *string `json:"content,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

type setPublishedRequest struct {
	Published *bool `json:"published" validate:"required"`
}

type postLinks struct {
	Self      string `json:"self"`
	Published string `json:"published"`
}

type postResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Links     postLinks `json:"_links"`
}

type listPostsResponse struct {
	Data  []postResponse `json:"data"`
	Total int            `json:"total"`
}

type successResponse struct {
	Success bool `json:"success"`
}
