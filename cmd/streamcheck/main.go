package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/obslog"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/stream"
)

// streamcheck subscribes to the game server for a short window and prints every decoded snapshot.
func main() {
	window := flag.Duration("for", 10*time.Second, "how long to observe the stream")
	flag.Parse()

	baseURL := os.Getenv("SERVER_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:4000"
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()

	headers := func() map[string]string {
		m := map[string]string{}
		if id := os.Getenv("X_USER_ID"); id != "" {
			m["X-User-Id"] = id
		}
		return m
	}

	client := stream.NewClient(baseURL,
		stream.WithHeaderProvider(headers),
		stream.WithLogger(obslog.Named("stream")),
	)
	client.OnStateChange(func(state stream.State, err error) {
		if err != nil {
			log.Printf("stream state: %s (%v)", state, err)
			return
		}
		log.Printf("stream state: %s", state)
	})

	latest := stream.NewLatest()
	latest.OnChange(func(s *gamestate.Snapshot) {
		side, _ := s.SideToMove()
		fmt.Printf("#%d kind=%s last=%q to_move=%s fen=%s\n", s.Seq, s.Kind, s.LastMove, side, s.Position)
		if s.IsError() {
			fmt.Printf("   error: %s\n", s.Message)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), *window)
	defer cancel()
	sub := client.Subscribe(ctx, latest)

	select {
	case <-ctx.Done():
	case <-sub.Done():
	}
	sub.Close()
	if err := sub.Err(); err != nil {
		log.Printf("stream error: %v", err)
	}
	if last := latest.Load(); last == nil {
		log.Println("no snapshot received")
	}
}
