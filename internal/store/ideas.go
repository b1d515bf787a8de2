package store

import (
	"context"

	"github.com/noah-isme/idea-board/internal/models"
)

// NewIdea carries the caller-validated fields of an idea being posted.
type NewIdea struct {
	Title   string
	Content models.IdeaContent
	Stage   models.Stage
	Images  []string
}

// IdeaPatch lists the fields EditIdea may replace. Nil fields are left untouched; a non-nil empty
// Images clears the images.
type IdeaPatch struct {
	Title   *string
	Content *models.IdeaContent
	Stage   *models.Stage
	Images  []string
}

// CreateIdea prepends a new idea authored by actor.
func (s *Store) CreateIdea(ctx context.Context, actor Actor, input NewIdea) (models.Idea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idea := models.Idea{
		ID:           s.newID(),
		Title:        input.Title,
		AuthorID:     actor.ID,
		Author:       actor.Name,
		AuthorHandle: actor.Handle,
		Content:      input.Content,
		Tags:         []models.Stage{input.Stage},
		Comments:     []models.Comment{},
		CreatedAt:    models.JustNow,
		IsNew:        true,
	}
	if len(input.Images) > 0 {
		idea.Images = append([]string(nil), input.Images...)
	}

	s.ideas = append([]models.Idea{idea}, s.ideas...)
	s.logger.Debug().Str("idea_id", idea.ID).Str("author_id", actor.ID).Msg("idea created")

	return idea.Clone(), s.flushLocked(ctx)
}

// EditIdea merges patch into the idea. Comments and engagement are never touched.
func (s *Store) EditIdea(ctx context.Context, id string, patch IdeaPatch) (models.Idea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Idea{}, ErrIdeaNotFound
	}

	idea := s.ideas[idx].Clone()
	if patch.Title != nil {
		idea.Title = *patch.Title
	}
	if patch.Content != nil {
		idea.Content = *patch.Content
	}
	if patch.Stage != nil {
		idea.Tags = []models.Stage{*patch.Stage}
	}
	if patch.Images != nil {
		idea.Images = nil
		if len(patch.Images) > 0 {
			idea.Images = append([]string(nil), patch.Images...)
		}
		idea.ImageURL = ""
	}
	s.ideas[idx] = idea

	return idea.Clone(), s.flushLocked(ctx)
}

// DeleteIdea removes the idea with its comments, every ledger entry pointing at it and every
// notification that references it.
func (s *Store) DeleteIdea(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrIdeaNotFound
	}

	s.ideas = append(s.ideas[:idx:idx], s.ideas[idx+1:]...)

	for actorID, votes := range s.votes {
		delete(votes.Ratings, id)
		delete(votes.Reactions, id)
		if votes.Empty() {
			delete(s.votes, actorID)
		}
	}

	kept := make([]models.Notification, 0, len(s.notifications))
	for _, notification := range s.notifications {
		if notification.RelatedIdeaID != id {
			kept = append(kept, notification)
		}
	}
	s.notifications = kept

	s.logger.Debug().Str("idea_id", id).Msg("idea deleted")
	return s.flushLocked(ctx)
}
