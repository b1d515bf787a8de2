package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/noah-isme/idea-board/internal/models"
	"github.com/noah-isme/idea-board/internal/observability"
)

// MarkAllNotificationsRead marks the whole feed read. Calling it again changes nothing.
func (s *Store) MarkAllNotificationsRead(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for idx := range s.notifications {
		s.notifications[idx].Read = true
	}
	return s.flushLocked(ctx)
}

// notifyLocked prepends an unread notification and returns it.
func (s *Store) notifyLocked(kind models.NotificationType, message, ideaID string) models.Notification {
	notification := models.Notification{
		ID:            s.newID(),
		Type:          kind,
		Message:       message,
		CreatedAt:     models.JustNow,
		RelatedIdeaID: ideaID,
	}
	s.notifications = append([]models.Notification{notification}, s.notifications...)
	observability.NotificationsEmitted().WithLabelValues(string(kind)).Inc()
	return notification
}

func commentMessage(idea models.Idea) string {
	return "New comment on your idea: " + idea.Title
}

func ratingMessage(idea models.Idea, rating float64) string {
	return fmt.Sprintf("Someone rated your idea %s stars: %s", strconv.FormatFloat(rating, 'f', -1, 64), idea.Title)
}

func reactionMessage(idea models.Idea, reaction models.Reaction) string {
	if reaction == models.ReactionDislike {
		return "Someone disliked your idea: " + idea.Title
	}
	return "Someone liked your idea: " + idea.Title
}

func notificationFor(reaction models.Reaction) models.NotificationType {
	if reaction == models.ReactionDislike {
		return models.NotificationDislike
	}
	return models.NotificationLike
}
