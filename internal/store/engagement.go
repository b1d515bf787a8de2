package store

import (
	"context"

	"github.com/noah-isme/idea-board/internal/models"
)

// highRating is the lowest rating that notifies the idea owner.
const highRating = 4

// AddComment appends a comment to the idea. A positive rating also replaces the actor's rating of
// the idea, which requires the rating engagement mode.
func (s *Store) AddComment(ctx context.Context, actor Actor, ideaID, content string, rating *float64) (Mutation, error) {
	rated := rating != nil && *rating > 0

	s.mu.Lock()
	defer s.mu.Unlock()

	if rated && s.mode != ModeRating {
		return Mutation{}, ErrUnsupportedEngagement
	}
	idx := s.indexOf(ideaID)
	if idx < 0 {
		return Mutation{}, ErrIdeaNotFound
	}

	idea := s.ideas[idx].Clone()
	comment := models.Comment{
		ID:        s.newID(),
		AuthorID:  actor.ID,
		Author:    actor.Name,
		Content:   content,
		CreatedAt: models.JustNow,
	}

	var created []models.Notification
	notifyOwner := s.isOwnedByOther(idea, actor)
	if notifyOwner {
		created = append(created, s.notifyLocked(models.NotificationComment, commentMessage(idea), idea.ID))
	}

	if rated {
		value := *rating
		comment.Rating = &value
		s.setRatingLocked(&idea, actor.ID, value)
		if notifyOwner && value >= highRating {
			created = append(created, s.notifyLocked(models.NotificationLike, ratingMessage(idea, value), idea.ID))
		}
	}

	idea.Comments = append(idea.Comments, comment)
	s.ideas[idx] = idea

	stored := comment
	if comment.Rating != nil {
		value := *comment.Rating
		stored.Rating = &value
	}
	return Mutation{Idea: idea.Clone(), Comment: &stored, Notifications: created}, s.flushLocked(ctx)
}

// RateIdea replaces the actor's rating of the idea. The owner is notified only the first time a
// given actor, the owner included, rates one of their ideas highly.
func (s *Store) RateIdea(ctx context.Context, actor Actor, ideaID string, rating float64) (Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeRating {
		return Mutation{}, ErrUnsupportedEngagement
	}
	idx := s.indexOf(ideaID)
	if idx < 0 {
		return Mutation{}, ErrIdeaNotFound
	}

	idea := s.ideas[idx].Clone()
	_, hadPrevious := s.votes[actor.ID].Ratings[ideaID]
	s.setRatingLocked(&idea, actor.ID, rating)
	s.ideas[idx] = idea

	var created []models.Notification
	if !hadPrevious && rating >= highRating && s.isOwned(idea) {
		created = append(created, s.notifyLocked(models.NotificationLike, ratingMessage(idea, rating), idea.ID))
	}

	return Mutation{Idea: idea.Clone(), Notifications: created}, s.flushLocked(ctx)
}

// LikeIdea toggles the actor's like on the idea.
func (s *Store) LikeIdea(ctx context.Context, actor Actor, ideaID string) (Mutation, error) {
	return s.react(ctx, actor, ideaID, models.ReactionLike)
}

// DislikeIdea toggles the actor's dislike on the idea.
func (s *Store) DislikeIdea(ctx context.Context, actor Actor, ideaID string) (Mutation, error) {
	return s.react(ctx, actor, ideaID, models.ReactionDislike)
}

func (s *Store) react(ctx context.Context, actor Actor, ideaID string, reaction models.Reaction) (Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeVotes {
		return Mutation{}, ErrUnsupportedEngagement
	}
	idx := s.indexOf(ideaID)
	if idx < 0 {
		return Mutation{}, ErrIdeaNotFound
	}

	idea := s.ideas[idx].Clone()
	votes := s.actorVotesLocked(actor.ID)
	current, hadReaction := votes.Reactions[ideaID]

	entered := true
	switch {
	case hadReaction && current == reaction:
		adjustReaction(&idea, reaction, -1)
		delete(votes.Reactions, ideaID)
		entered = false
	case hadReaction && current == reaction.Opposite():
		adjustReaction(&idea, current, -1)
		adjustReaction(&idea, reaction, 1)
		votes.Reactions[ideaID] = reaction
	default:
		adjustReaction(&idea, reaction, 1)
		votes.Reactions[ideaID] = reaction
	}
	s.storeActorVotesLocked(actor.ID, votes)
	s.ideas[idx] = idea

	var created []models.Notification
	if entered && s.isOwned(idea) {
		created = append(created, s.notifyLocked(notificationFor(reaction), reactionMessage(idea, reaction), idea.ID))
	}

	return Mutation{Idea: idea.Clone(), Notifications: created}, s.flushLocked(ctx)
}

// EditComment replaces the content of one comment.
func (s *Store) EditComment(ctx context.Context, ideaID, commentID, content string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(ideaID)
	if idx < 0 {
		return models.Comment{}, ErrIdeaNotFound
	}

	idea := s.ideas[idx].Clone()
	for pos := range idea.Comments {
		if idea.Comments[pos].ID != commentID {
			continue
		}
		idea.Comments[pos].Content = content
		s.ideas[idx] = idea
		return idea.Clone().Comments[pos], s.flushLocked(ctx)
	}
	return models.Comment{}, ErrCommentNotFound
}

// DeleteComment removes one comment. A rating the comment carried stays on the idea.
func (s *Store) DeleteComment(ctx context.Context, ideaID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(ideaID)
	if idx < 0 {
		return ErrIdeaNotFound
	}

	idea := s.ideas[idx].Clone()
	for pos := range idea.Comments {
		if idea.Comments[pos].ID != commentID {
			continue
		}
		idea.Comments = append(idea.Comments[:pos], idea.Comments[pos+1:]...)
		s.ideas[idx] = idea
		return s.flushLocked(ctx)
	}
	return ErrCommentNotFound
}

func (s *Store) setRatingLocked(idea *models.Idea, actorID string, rating float64) {
	if idea.Ratings == nil {
		idea.Ratings = make(map[string]float64)
	}
	idea.Ratings[actorID] = rating

	votes := s.actorVotesLocked(actorID)
	votes.Ratings[idea.ID] = rating
	s.storeActorVotesLocked(actorID, votes)
}

func (s *Store) actorVotesLocked(actorID string) models.ActorVotes {
	votes := s.votes[actorID]
	if votes.Ratings == nil {
		votes.Ratings = make(map[string]float64)
	}
	if votes.Reactions == nil {
		votes.Reactions = make(map[string]models.Reaction)
	}
	return votes
}

func (s *Store) storeActorVotesLocked(actorID string, votes models.ActorVotes) {
	if votes.Empty() {
		delete(s.votes, actorID)
		return
	}
	s.votes[actorID] = votes
}

func adjustReaction(idea *models.Idea, reaction models.Reaction, delta int) {
	counter := &idea.Likes
	if reaction == models.ReactionDislike {
		counter = &idea.Dislikes
	}
	*counter += delta
	if *counter < 0 {
		*counter = 0
	}
}
