package powergate

import (
	"context"
	"fmt"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/powerstar"
)

// OperationFunc is the device-operation signature that Wrap guards.
type OperationFunc func(ctx context.Context, req model.RequestContext) (any, error)

// GuardedFunc is a wrapped operation. Calling it runs the routing
// decision first; the inner function only executes when the gate
// allows it without confirmation.
type GuardedFunc func(ctx context.Context, req model.RequestContext) (any, error)

// BlockedError is returned when the gate denies an operation outright.
type BlockedError struct {
	Operation string
	Code      model.ErrorCode
	Reason    string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("powergate: %s blocked (%s): %s", e.Operation, e.Code, e.Reason)
}

// ConfirmationRequired is returned when the operation needs a power
// star. The embedded star carries the challenges the operator must
// complete; afterwards call Client.Execute with the star ID.
type ConfirmationRequired struct {
	Operation string
	Star      *powerstar.StarView
}

func (e *ConfirmationRequired) Error() string {
	return fmt.Sprintf("powergate: %s requires confirmation, star %s pending", e.Operation, e.Star.ID)
}

// Wrap guards fn behind the gate for the named operation.
//
// Outcomes:
//   - route denied → (*BlockedError)
//   - route allowed, no confirmation → fn runs immediately
//   - confirmation required → a star is requested and returned inside
//     (*ConfirmationRequired); fn is parked until Execute.
func (c *Client) Wrap(operation string, spec model.OperationSpec, fn OperationFunc) GuardedFunc {
	return func(ctx context.Context, req model.RequestContext) (any, error) {
		decision, err := c.gate.Authorize(ctx, operation, req)
		if err != nil {
			return nil, err
		}
		if !decision.Success {
			return nil, &BlockedError{Operation: operation, Code: decision.Error, Reason: decision.Reason}
		}

		if !decision.RequiresConfirmation {
			return fn(ctx, req)
		}

		requested, err := c.gate.RequestStar(ctx, operation, spec, req)
		if err != nil {
			return nil, err
		}
		if requested.Denied {
			return nil, &BlockedError{Operation: operation, Code: requested.Error, Reason: requested.Reason}
		}
		if !requested.Required {
			// Risk profile says no ritual needed despite the route flag.
			return fn(ctx, req)
		}

		c.mu.Lock()
		c.pending[requested.Star.ID] = pendingOp{operation: operation, fn: fn}
		c.mu.Unlock()

		return nil, &ConfirmationRequired{Operation: operation, Star: requested.Star}
	}
}

// Execute consumes a verified star and runs the operation parked by
// Wrap. The star is burned before fn runs; a failed fn does not revive
// it.
func (c *Client) Execute(ctx context.Context, starID string, req model.RequestContext) (any, error) {
	c.mu.Lock()
	op, ok := c.pending[starID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("powergate: no pending operation for star %s", starID)
	}

	serial := ""
	if req.Device != nil {
		serial = req.Device.Serial
	}
	if v := c.gate.VerifyStar(starID, op.operation, serial); !v.Valid {
		return nil, &BlockedError{Operation: op.operation, Code: v.Error, Reason: v.Reason}
	}

	consumed, err := c.gate.ConsumeStar(starID)
	if err != nil {
		return nil, err
	}
	if !consumed.Success {
		return nil, &BlockedError{Operation: op.operation, Code: consumed.Error, Reason: consumed.Reason}
	}

	c.mu.Lock()
	delete(c.pending, starID)
	c.mu.Unlock()

	return op.fn(ctx, req)
}
