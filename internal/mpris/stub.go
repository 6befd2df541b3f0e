//go:build !linux

package mpris

import "go.uber.org/zap"

// Bridge is a no-op outside Linux.
type Bridge struct{}

// New returns a no-op bridge outside Linux.
func New(_ Session, _ *zap.Logger) *Bridge {
	return &Bridge{}
}

// Close is a no-op outside Linux.
func (b *Bridge) Close() error {
	return nil
}
