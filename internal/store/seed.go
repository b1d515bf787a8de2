package store

import "github.com/noah-isme/idea-board/internal/models"

// DefaultSeed is the collection a board starts with when nothing has been saved yet.
func DefaultSeed(owner Actor) []models.Idea {
	return []models.Idea{
		{
			ID:           "test-1",
			Title:        "Welcome to the board",
			AuthorID:     owner.ID,
			Author:       owner.Name,
			AuthorHandle: owner.Handle,
			Content: models.IdeaContent{
				Planning: "This project aims to solve the problem of...",
				Details:  "Share what you are building and collect feedback.",
				Roadmap:  "Phase 1: Launch MVP\nPhase 2: User feedback",
			},
			Tags:      []models.Stage{models.StageLive},
			Comments:  []models.Comment{},
			CreatedAt: models.JustNow,
			IsNew:     true,
		},
	}
}
