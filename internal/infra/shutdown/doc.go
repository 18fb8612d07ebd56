// Package shutdown turns termination signals into context cancellation.
//
// The first SIGINT or SIGTERM cancels the command's context so a running
// command (such as a polling loop) can return and release its resources
// normally. A second signal runs the registered hooks and exits.
//
// Usage:
//
//	h := shutdown.NewHandler(2 * time.Second)
//	ctx, stop := h.Context(context.Background())
//	defer stop()
package shutdown
