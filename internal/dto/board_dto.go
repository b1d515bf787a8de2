package dto

import (
	"github.com/noah-isme/idea-board/internal/models"
)

// IdeaContentPayload carries the three sections of an idea body.
type IdeaContentPayload struct {
	Planning string `json:"planning" validate:"required,max=5000"`
	Details  string `json:"details" validate:"omitempty,max=5000"`
	Roadmap  string `json:"roadmap" validate:"omitempty,max=5000"`
}

// IdeaCreateRequest is the payload for posting an idea.
type IdeaCreateRequest struct {
	Title   string             `json:"title" validate:"required,max=40"`
	Content IdeaContentPayload `json:"content"`
	Stage   string             `json:"stage" validate:"required,oneof=idea working pre-launch live"`
	Images  []string           `json:"images" validate:"omitempty,max=3,dive,datauri"`
}

// IdeaUpdateRequest is the payload for editing an idea. Absent fields are left untouched and an
// empty images array removes every image.
type IdeaUpdateRequest struct {
	Title   *string             `json:"title" validate:"omitempty,max=40"`
	Content *IdeaContentPayload `json:"content"`
	Stage   *string             `json:"stage" validate:"omitempty,oneof=idea working pre-launch live"`
	Images  *[]string           `json:"images" validate:"omitempty,max=3,dive,datauri"`
}

// IdeaListRequest captures browse query params.
type IdeaListRequest struct {
	Search   string
	Stage    string
	Page     int
	PageSize int
}

// CommentCreateRequest is the payload for commenting on an idea, optionally with a rating.
type CommentCreateRequest struct {
	Content string   `json:"content" validate:"required,max=2000"`
	Rating  *float64 `json:"rating" validate:"omitempty,min=1,max=5"`
}

// CommentUpdateRequest is the payload for editing a comment.
type CommentUpdateRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// RatingRequest is the payload for rating an idea.
type RatingRequest struct {
	Rating float64 `json:"rating" validate:"required,min=1,max=5"`
}

// CommentResponse serializes a comment.
type CommentResponse struct {
	ID        string   `json:"id"`
	AuthorID  string   `json:"author_id"`
	Author    string   `json:"author"`
	Content   string   `json:"content"`
	CreatedAt string   `json:"created_at"`
	Rating    *float64 `json:"rating,omitempty"`
}

// IdeaSummaryResponse is the card view of an idea used in listings.
type IdeaSummaryResponse struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	AuthorID      string             `json:"author_id"`
	Author        string             `json:"author"`
	AuthorHandle  string             `json:"author_handle"`
	Content       models.IdeaContent `json:"content"`
	Tags          []models.Stage     `json:"tags"`
	AverageRating float64            `json:"average_rating"`
	RatingCount   int                `json:"rating_count"`
	Likes         int                `json:"likes"`
	Dislikes      int                `json:"dislikes"`
	CommentCount  int                `json:"comment_count"`
	Images        []string           `json:"images"`
	CreatedAt     string             `json:"created_at"`
	IsNew         bool               `json:"is_new"`
}

// RatingBucket is one row of the star histogram.
type RatingBucket struct {
	Stars      int     `json:"stars"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// IdeaDetailResponse is the full view of an idea for one viewer.
type IdeaDetailResponse struct {
	IdeaSummaryResponse
	Comments   []CommentResponse `json:"comments"`
	Histogram  []RatingBucket    `json:"histogram"`
	MyRating   *float64          `json:"my_rating,omitempty"`
	MyReaction string            `json:"my_reaction,omitempty"`
}

// IdeaListFilters describes applied filters.
type IdeaListFilters struct {
	Search string `json:"search,omitempty"`
	Stage  string `json:"stage"`
}

// IdeaListResult wraps a page of ideas.
type IdeaListResult struct {
	Items      []IdeaSummaryResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
	Filters    IdeaListFilters       `json:"filters"`
}

// HallOfFameEntry is one commenter's standing.
type HallOfFameEntry struct {
	Rank     int    `json:"rank"`
	AuthorID string `json:"author_id"`
	Author   string `json:"author"`
	Comments int    `json:"comments"`
}

// HallOfFameResponse lists the top commenters and the viewer's own standing. Me.Rank is 0 when
// the viewer has never commented.
type HallOfFameResponse struct {
	Top []HallOfFameEntry `json:"top"`
	Me  HallOfFameEntry   `json:"me"`
}

// ActorResponse names the acting identity.
type ActorResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

// ProfileComment is a comment the actor left, with the idea it belongs to.
type ProfileComment struct {
	IdeaID    string          `json:"idea_id"`
	IdeaTitle string          `json:"idea_title"`
	Comment   CommentResponse `json:"comment"`
}

// ProfileResponse is the actor's own page.
type ProfileResponse struct {
	Actor    ActorResponse         `json:"actor"`
	Ideas    []IdeaSummaryResponse `json:"ideas"`
	Comments []ProfileComment      `json:"comments"`
}

// NewCommentResponse converts a model into a DTO.
func NewCommentResponse(comment models.Comment) CommentResponse {
	response := CommentResponse{
		ID:        comment.ID,
		AuthorID:  comment.AuthorID,
		Author:    comment.Author,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
	if comment.Rating != nil {
		rating := *comment.Rating
		response.Rating = &rating
	}
	return response
}

// NewCommentResponseSlice converts a slice of models into DTOs.
func NewCommentResponseSlice(comments []models.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, NewCommentResponse(comment))
	}
	return out
}

// NewIdeaSummaryResponse converts a model into its card view.
func NewIdeaSummaryResponse(idea models.Idea) IdeaSummaryResponse {
	tags := append([]models.Stage{}, idea.Tags...)
	return IdeaSummaryResponse{
		ID:            idea.ID,
		Title:         idea.Title,
		AuthorID:      idea.AuthorID,
		Author:        idea.Author,
		AuthorHandle:  idea.AuthorHandle,
		Content:       idea.Content,
		Tags:          tags,
		AverageRating: idea.AverageRating(),
		RatingCount:   len(idea.Ratings),
		Likes:         idea.Likes,
		Dislikes:      idea.Dislikes,
		CommentCount:  len(idea.Comments),
		Images:        idea.DisplayImages(),
		CreatedAt:     idea.CreatedAt,
		IsNew:         idea.IsNew,
	}
}

// NewIdeaSummaryResponseSlice converts a slice of models into card views.
func NewIdeaSummaryResponseSlice(ideas []models.Idea) []IdeaSummaryResponse {
	out := make([]IdeaSummaryResponse, 0, len(ideas))
	for _, idea := range ideas {
		out = append(out, NewIdeaSummaryResponse(idea))
	}
	return out
}
