package config

import (
	"context"
	"io"
	"log/slog"

	"github.com/jpalmerr/reviewq"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopService struct{}

func (nopService) AssignedCount(context.Context) (int, error) { return 0, nil }

func (nopService) RequestAssignment(context.Context, int) (reviewq.AssignResponse, error) {
	return reviewq.AssignResponse{}, nil
}

func (nopService) Feedbacks(context.Context) ([]reviewq.Feedback, error) { return nil, nil }
