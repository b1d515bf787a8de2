package dto

import "github.com/noah-isme/idea-board/internal/models"

// NotificationResponse serializes a notification.
type NotificationResponse struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Message       string `json:"message"`
	Read          bool   `json:"read"`
	CreatedAt     string `json:"created_at"`
	RelatedIdeaID string `json:"related_idea_id"`
}

// NotificationListResult wraps a page of the feed.
type NotificationListResult struct {
	Items  []NotificationResponse `json:"items"`
	Total  int                    `json:"total"`
	Unread int                    `json:"unread"`
}

// NewNotificationResponse converts a model into a DTO.
func NewNotificationResponse(notification models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            notification.ID,
		Type:          string(notification.Type),
		Message:       notification.Message,
		Read:          notification.Read,
		CreatedAt:     notification.CreatedAt,
		RelatedIdeaID: notification.RelatedIdeaID,
	}
}

// NewNotificationResponseSlice converts a slice of models into DTOs.
func NewNotificationResponseSlice(notifications []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, NewNotificationResponse(notification))
	}
	return out
}
