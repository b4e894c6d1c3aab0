// Package powergate provides in-process gating for Go device tooling.
// It wraps operation functions so they only run after the authority
// router allows them and, for confirmation-bearing operations, after a
// verified power star has been consumed.
//
// Usage:
//
//	pg, err := powergate.New(powergate.WithLogDir("logs"))
//	wrapped := pg.Wrap("factory.reset", resetSpec, doFactoryReset)
//	_, err = wrapped(ctx, reqCtx)           // returns *ConfirmationRequired
//	// ... operator completes the star's challenges ...
//	result, err := pg.Execute(ctx, starID, reqCtx)
//
// The SDK links directly against internal packages for zero-subprocess
// overhead.
package powergate
