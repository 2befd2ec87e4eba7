package common

import (
	"context"
	"fmt"

	"github.com/example/salon-notify/internal/models"
)

// Adapter delivers a message through exactly one third-party transport.
// Send never returns an error value: every failure, including a panic inside
// the transport, comes back as a failed DeliveryAttemptResult.
type Adapter interface {
	Name() string
	Send(ctx context.Context, msg *models.OutboundMessage) models.DeliveryAttemptResult
}

// SafeSend invokes a.Send and turns a panic into a failed result so one broken
// transport cannot take the whole chain down.
func SafeSend(ctx context.Context, a Adapter, msg *models.OutboundMessage) (res models.DeliveryAttemptResult) {
	name := a.Name()
	defer func() {
		if r := recover(); r != nil {
			res = models.Failure(name, WrapTransport(fmt.Errorf("adapter panic: %v", r)))
		}
	}()
	res = a.Send(ctx, msg)
	if res.Channel == "" {
		res.Channel = name
	}
	return res
}
