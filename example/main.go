package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/reviewq"
	"github.com/jpalmerr/reviewq/example/mockapi"
	"github.com/jpalmerr/reviewq/internal/reviewapi"
)

func main() {
	// logs would fight with the status view, so the demo drops them
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	api := mockapi.New(time.Now().UnixNano(), logger)
	api.AssignChance = 0.4
	go func() {
		if err := api.ListenAndServe("127.0.0.1:9999"); err != nil {
			slog.Error("mock server error", "error", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	client, err := reviewapi.New("demo-token",
		reviewapi.WithBaseURL("http://127.0.0.1:9999"+mockapi.BasePath),
		reviewapi.WithLogger(logger),
	)
	if err != nil {
		slog.Error("failed to create client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	// faster gates than the defaults so the demo shows activity quickly
	w, err := reviewq.New(
		reviewq.WithService(client),
		reviewq.WithProjects(101, 101, 205),
		reviewq.WithCertified(101, 205, 310),
		reviewq.WithFeedbacks(true),
		reviewq.WithShowAssignedTotal(true),
		reviewq.WithIntervals(10, 30),
		reviewq.WithListenAddr("127.0.0.1:8080"),
		reviewq.WithStatusWriter(os.Stdout),
		reviewq.WithLogger(logger),
		reviewq.WithEventCallback(func(ev reviewq.Event) {
			fmt.Fprintf(os.Stderr, "\a")
		}),
	)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}

	fmt.Println("reviewq demo: status JSON at http://127.0.0.1:8080/api/status")
	time.Sleep(time.Second)

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		slog.Error("reviewq error", "error", err)
		os.Exit(1)
	}
}
