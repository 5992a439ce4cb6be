package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type runFunc func(ctx context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }

func TestConsume(t *testing.T) {
	broker := errors.New("broker gone")

	tests := []struct {
		name    string
		cancel  bool
		run     runFunc
		wantErr error
	}{
		{
			name:   "shutdown is clean",
			cancel: true,
			run: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		},
		{
			name:    "nil return with live context",
			run:     func(context.Context) error { return nil },
			wantErr: errConsumerStopped,
		},
		{
			name:    "consumer error is returned",
			run:     func(context.Context) error { return broker },
			wantErr: broker,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}
			err := consume(ctx, tt.run)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
