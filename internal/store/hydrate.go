package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/idea-board/internal/models"
	"github.com/noah-isme/idea-board/internal/observability"
)

// Hydrate loads the three persisted blobs. Each blob is read, schema checked and decoded on its
// own; a failure on one key is logged and that piece keeps its default. Changes made before
// Hydrate are discarded. Persistence of later mutations starts only once all three loads have
// been attempted.
func (s *Store) Hydrate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()

	var ideas []models.Idea
	if s.load(ctx, s.keys.Ideas, schemaIdeas, &ideas) {
		s.ideas = make([]models.Idea, 0, len(ideas))
		for _, idea := range ideas {
			s.ideas = append(s.ideas, normalizeIdea(idea))
		}
	}

	var votes models.VoteLedger
	if s.load(ctx, s.keys.Votes, schemaVotes, &votes) {
		s.votes = models.VoteLedger{}
		for actorID, actorVotes := range votes {
			if actorVotes.Empty() {
				continue
			}
			s.votes[actorID] = actorVotes.Clone()
		}
	}

	var notifications []models.Notification
	if s.load(ctx, s.keys.Notifications, schemaNotifications, &notifications) {
		s.notifications = append([]models.Notification{}, notifications...)
	}

	s.hydrated = true
	s.logger.Info().
		Int("ideas", len(s.ideas)).
		Int("voters", len(s.votes)).
		Int("notifications", len(s.notifications)).
		Msg("board state hydrated")
}

// load reports whether target was filled from storage.
func (s *Store) load(ctx context.Context, key string, schema schemaName, target any) bool {
	raw, found, err := s.repo.Get(ctx, key)
	if err != nil {
		s.hydrationFallback(key, "read", err)
		return false
	}
	if !found {
		return false
	}

	if err := validateBlob(schema, raw); err != nil {
		s.hydrationFallback(key, "schema", err)
		return false
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		s.hydrationFallback(key, "parse", fmt.Errorf("decode %s: %w", key, err))
		return false
	}
	return true
}

func (s *Store) hydrationFallback(key, reason string, err error) {
	observability.HydrationFallbacks().WithLabelValues(key, reason).Inc()
	s.logger.Error().Err(err).Str("key", key).Str("reason", reason).Msg("failed to load saved board state, using default")
}
