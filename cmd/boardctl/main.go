// Command boardctl prints the persisted idea board using the API configuration.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/k0kubun/pp/v3"
	"github.com/rs/zerolog"

	"github.com/noah-isme/idea-board/internal/config"
	"github.com/noah-isme/idea-board/internal/database"
	"github.com/noah-isme/idea-board/internal/dto"
	"github.com/noah-isme/idea-board/internal/service"
	"github.com/noah-isme/idea-board/internal/store"
)

const usage = "usage: boardctl dump|ideas|notifications|leaderboard|reset"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	blobs, closeBlobs, err := database.OpenBlobRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open %s storage: %v", cfg.StorageDriver, err)
	}
	defer closeBlobs()

	mode, err := store.ParseMode(cfg.EngagementMode)
	if err != nil {
		log.Fatal(err)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)
	board := store.New(blobs,
		store.WithLogger(logger),
		store.WithMode(mode),
		store.WithOwner(cfg.OwnerID),
		store.WithKeys(store.KeysWithPrefix(cfg.KeyPrefix)),
	)
	board.Hydrate(ctx)

	switch os.Args[1] {
	case "dump":
		pp.Print(board.Snapshot())
	case "ideas":
		pp.Print(dto.NewIdeaSummaryResponseSlice(board.Ideas()))
	case "notifications":
		pp.Print(dto.NewNotificationResponseSlice(board.Notifications()))
	case "leaderboard":
		svc := service.NewBoardService(board, nil, validator.New(), service.BoardServiceConfig{PageSize: cfg.PageSize}, logger)
		actor := store.Actor{ID: cfg.ActorID, Name: cfg.ActorName, Handle: cfg.ActorHandle}
		leaders, err := svc.HallOfFame(ctx, actor)
		if err != nil {
			log.Fatal(err)
		}
		pp.Print(leaders)
	case "reset":
		if err := board.Reset(ctx); err != nil {
			log.Fatal("failed to reset board: ", err)
		}
		fmt.Print("board reset")
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	fmt.Println()
}
