package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idea-board/internal/dto"
	"github.com/noah-isme/idea-board/internal/models"
	"github.com/noah-isme/idea-board/internal/repository"
	"github.com/noah-isme/idea-board/internal/store"
)

func newFeedStore(t *testing.T) *store.Store {
	t.Helper()
	feed := store.New(repository.NewMemoryBlobRepository(0), store.WithLogger(zerolog.Nop()), store.WithOwner(ownerActor.ID))
	feed.Hydrate(context.Background())
	return feed
}

func TestNotificationServiceListAndMarkAllRead(t *testing.T) {
	feed := newFeedStore(t)
	ctx := context.Background()

	idea, err := feed.CreateIdea(ctx, ownerActor, store.NewIdea{Title: "Watched", Stage: models.StageIdea})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := feed.AddComment(ctx, visitorActor, idea.ID, "hello", nil)
		require.NoError(t, err)
	}

	svc := NewNotificationService(feed, nil, nil, "", zerolog.Nop())

	page, err := svc.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, 3, page.Total)
	require.Equal(t, 3, page.Unread)
	require.Equal(t, "New comment on your idea: Watched", page.Items[0].Message)

	tail, err := svc.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, tail.Items, 1)

	past, err := svc.List(ctx, 10, 50)
	require.NoError(t, err)
	require.Empty(t, past.Items)

	_, err = svc.List(ctx, 10, -1)
	require.Error(t, err)

	require.NoError(t, svc.MarkAllRead(ctx))
	require.Zero(t, svc.UnreadCount(ctx))
	require.NoError(t, svc.MarkAllRead(ctx))
	require.Zero(t, svc.UnreadCount(ctx))
}

func TestNotificationServicePublishReachesSubscribers(t *testing.T) {
	svc := NewNotificationService(newFeedStore(t), nil, nil, "", zerolog.Nop())

	stream, cleanup := svc.Subscribe()
	defer cleanup()

	svc.Publish(context.Background(), []models.Notification{
		{ID: "n2", Type: models.NotificationLike, Message: "second"},
		{ID: "n1", Type: models.NotificationComment, Message: "first"},
	})

	first := receive(t, stream)
	second := receive(t, stream)
	require.Equal(t, "n1", first.ID, "older notifications are delivered first")
	require.Equal(t, "n2", second.ID)

	cleanup()
	cleanup()
	_, open := <-stream
	require.False(t, open)
}

func TestNotificationServiceDropsWhenSubscriberIsFull(t *testing.T) {
	svc := NewNotificationService(newFeedStore(t), nil, nil, "", zerolog.Nop())

	stream, cleanup := svc.Subscribe()
	defer cleanup()

	batch := make([]models.Notification, notificationBufferSize+4)
	for i := range batch {
		batch[i] = models.Notification{ID: string(rune('a' + i)), Type: models.NotificationComment}
	}

	done := make(chan struct{})
	go func() {
		svc.Publish(context.Background(), batch)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	require.Len(t, stream, notificationBufferSize)
}

func TestNotificationServiceRelaysAcrossNodesViaRedis(t *testing.T) {
	mini := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisherClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	listenerClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() {
		_ = publisherClient.Close()
		_ = listenerClient.Close()
	})

	origin := NewNotificationService(newFeedStore(t), publisherClient, nil, "board", zerolog.Nop())
	remote := NewNotificationService(newFeedStore(t), listenerClient, nil, "board", zerolog.Nop())
	origin.Start(ctx)
	remote.Start(ctx)

	require.Eventually(t, func() bool {
		return mini.PubSubNumSub("board:notifications")["board:notifications"] == 2
	}, 2*time.Second, 10*time.Millisecond)

	originStream, originCleanup := origin.Subscribe()
	defer originCleanup()
	remoteStream, remoteCleanup := remote.Subscribe()
	defer remoteCleanup()

	origin.Publish(ctx, []models.Notification{{ID: "n1", Type: models.NotificationLike, Message: "Someone rated your idea 5 stars: X", RelatedIdeaID: "x"}})

	relayed := receive(t, remoteStream)
	require.Equal(t, "n1", relayed.ID)
	require.Equal(t, "x", relayed.RelatedIdeaID)

	local := receive(t, originStream)
	require.Equal(t, "n1", local.ID)
	select {
	case duplicate := <-originStream:
		t.Fatalf("origin received its own event twice: %+v", duplicate)
	case <-time.After(100 * time.Millisecond):
	}
}

func receive(t *testing.T, stream <-chan dto.NotificationResponse) dto.NotificationResponse {
	t.Helper()
	select {
	case notification, ok := <-stream:
		require.True(t, ok, "stream closed")
		return notification
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return dto.NotificationResponse{}
	}
}
