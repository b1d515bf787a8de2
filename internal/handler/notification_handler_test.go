package handler_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idea-board/internal/dto"
	"github.com/noah-isme/idea-board/internal/middleware"
)

type socketFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func postComment(t *testing.T, client *http.Client, baseURL, ideaID, actorID, content string) {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"content": content})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/ideas/"+ideaID+"/comments", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderActorID, actorID)

	resp, err := client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestNotificationHandler_WebsocketDeliversNotifications(t *testing.T) {
	b := newBoardApp(t, boardAppOptions{})
	idea := b.postIdea(t, "Live updates")

	baseURL, shutdown := startFiberServer(t, b.app)
	defer shutdown()

	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial("ws"+strings.TrimPrefix(baseURL, "http")+"/api/v1/notifications/ws", nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var frame socketFrame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "unread", frame.Event)
	require.JSONEq(t, `{"unread":0}`, string(frame.Data))

	postComment(t, &http.Client{Timeout: 3 * time.Second}, baseURL, idea.ID, "me", "Nice one")

	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "notification", frame.Event)
	var notification dto.NotificationResponse
	require.NoError(t, json.Unmarshal(frame.Data, &notification))
	require.Equal(t, "comment", notification.Type)
	require.Equal(t, idea.ID, notification.RelatedIdeaID)
}

func TestNotificationHandler_WebsocketRequiresUpgrade(t *testing.T) {
	b := newBoardApp(t, boardAppOptions{})

	resp, err := b.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/notifications/ws", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestNotificationHandler_StreamSendsServerEvents(t *testing.T) {
	b := newBoardApp(t, boardAppOptions{})
	idea := b.postIdea(t, "Streamed")

	baseURL, shutdown := startFiberServer(t, b.app)
	defer shutdown()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/notifications/stream", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	events := make(chan string, 16)
	go func() {
		defer close(events)
		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if strings.HasPrefix(line, "event: ") {
				events <- strings.TrimSpace(strings.TrimPrefix(line, "event: "))
			}
		}
	}()

	require.Equal(t, "unread", nextEvent(t, events))

	postComment(t, client, baseURL, idea.ID, "me", "Streaming works")
	require.Equal(t, "notification", nextEvent(t, events))
}

func nextEvent(t *testing.T, events <-chan string) string {
	t.Helper()
	select {
	case event, ok := <-events:
		require.True(t, ok, "stream closed")
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for server event")
		return ""
	}
}
