// Package shutdown runs cleanup hooks when the process is asked to stop.
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("http", srv.Shutdown)
//	h.OnShutdown("storage", func(context.Context) error { return store.Close() })
//	err := h.Wait(ctx) // returns after SIGINT/SIGTERM or ctx cancellation
//
// Hooks run in reverse registration order under one shared timeout.
package shutdown
