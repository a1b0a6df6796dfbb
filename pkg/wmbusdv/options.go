package wmbusdv

import (
	"context"

	"github.com/zdyb/wmbusdv/internal/driver"
	internalopts "github.com/zdyb/wmbusdv/internal/options"
)

// AnalyzeOptions configures parsing.
type AnalyzeOptions struct {
	// KeyHex is an optional 32-hex-digit AES key for mode 5 telegrams.
	KeyHex string
	// Registry overrides the default driver registry.
	Registry *driver.Registry
}

func (opts AnalyzeOptions) toInternal(ctx context.Context) (context.Context, []byte, error) {
	key, err := internalopts.ParseKeyHex(opts.KeyHex)
	if err != nil {
		return ctx, nil, err
	}
	ctx = internalopts.WithSecurityKey(ctx, key)
	return ctx, key, nil
}
