// Standalone mock review service for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/reviewq assign 101 205 --feedbacks -c example/config.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jpalmerr/reviewq/example/mockapi"
)

func main() {
	fmt.Println("Mock review service starting on :9999")
	fmt.Println("Certified projects: 101, 205, 310")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	api := mockapi.New(time.Now().UnixNano(), logger)
	if err := api.ListenAndServe(":9999"); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
