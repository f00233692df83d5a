// Package transport defines the outbound email send primitive the
// delivery orchestrator fans out to. Provider implementations live in
// subpackages.
package transport

import (
	"context"

	"github.com/medlemsys/campaign-engine/internal/domain"
)

// Transport delivers a single fully-resolved message.
//
// A nil error with Success=false means the provider rejected the
// message; a non-nil error means the call itself failed. The engine
// treats both as a per-recipient failure and never inspects
// provider-specific codes.
type Transport interface {
	Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error)
}

// Func adapts a function to the Transport interface. Handy for tests
// and for wrapping providers with middleware.
type Func func(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error)

// Send implements Transport.
func (f Func) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	return f(ctx, msg)
}
