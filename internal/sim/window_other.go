//go:build !amd64 || !cgo

package sim

import (
	"context"
	"time"
)

func Window(ctx context.Context, p *Panel, interval time.Duration) error {
	return ErrNoWindow
}
