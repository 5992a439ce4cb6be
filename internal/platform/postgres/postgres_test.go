package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPoolRejectsMalformedURL(t *testing.T) {
	_, err := NewPool(context.Background(), "postgres://%zz", 4, 1)
	assert.ErrorContains(t, err, "parse database url")
}
