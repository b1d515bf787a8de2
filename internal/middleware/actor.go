package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/idea-board/internal/store"
)

const actorLocalsKey = "actor"

// Actor headers. They name who is acting; they do not authenticate anyone.
const (
	HeaderActorID     = "X-Actor-ID"
	HeaderActorName   = "X-Actor-Name"
	HeaderActorHandle = "X-Actor-Handle"
)

// ActorIdentity resolves the acting identity from request headers, falling back to the
// configured local actor for anything missing.
func ActorIdentity(fallback store.Actor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := fallback
		if id := strings.TrimSpace(c.Get(HeaderActorID)); id != "" && id != fallback.ID {
			actor = store.Actor{ID: id, Name: id, Handle: "@" + id}
		}
		if name := strings.TrimSpace(c.Get(HeaderActorName)); name != "" {
			actor.Name = name
		}
		if handle := strings.TrimSpace(c.Get(HeaderActorHandle)); handle != "" {
			actor.Handle = handle
		}

		c.Locals(actorLocalsKey, actor)
		return c.Next()
	}
}

// ActorFromContext returns the actor bound to the request, or the zero Actor.
func ActorFromContext(c *fiber.Ctx) store.Actor {
	if c == nil {
		return store.Actor{}
	}
	if value, ok := c.Locals(actorLocalsKey).(store.Actor); ok {
		return value
	}
	return store.Actor{}
}
