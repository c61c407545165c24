package handler

import (
	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

func toPostInput(req postRequest) ports.PostInput {
	return ports.PostInput{
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
	}
}

func toPostResponse(p *domain.Post) postResponse {
	self := "/v1/posts/" + p.ID
	return postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Published: p.Published,
		AuthorID:  p.AuthorID,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
		Links: postLinks{
			Self:      self,
			Published: self + "/published",
		},
	}
}

func toListResponse(posts []*domain.Post) listPostsResponse {
	data := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		data = append(data, toPostResponse(p))
	}
	return listPostsResponse{Data: data, Total: len(data)}
}
