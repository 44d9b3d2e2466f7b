package ingestion

import (
	"context"

	"graduation-lab/internal/jupiter"
)

// TokenSource lists tokens launched through a dev address, one page at a time.
// Implemented by jupiter.Client.
type TokenSource interface {
	TopTokens(ctx context.Context, dev string, limit, offset int) ([]jupiter.TokenInfo, error)
}
