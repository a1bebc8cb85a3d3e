package payments

import "context"

// Authorizer wraps a payment provider's hold primitives. A hold reserves
// funds on the bidder's payment method without charging; Capture converts the
// hold into a charge and Release returns the funds without charge. The
// returned hold reference is opaque to the engine.
type Authorizer interface {
	Authorize(ctx context.Context, bidderID string, amount float64) (string, error)
	Capture(ctx context.Context, holdRef string) error
	Release(ctx context.Context, holdRef string) error
}
