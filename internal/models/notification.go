package models

// NotificationType identifies why a notification was raised.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationDislike NotificationType = "dislike"
	NotificationComment NotificationType = "comment"
)

// Notification is an entry in the owner's feed.
type Notification struct {
	ID            string           `json:"id"`
	Type          NotificationType `json:"type"`
	Message       string           `json:"message"`
	Read          bool             `json:"read"`
	CreatedAt     string           `json:"created_at"`
	RelatedIdeaID string           `json:"related_idea_id"`
}
