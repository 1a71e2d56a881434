// Command bounce evaluates, cross-checks and benchmarks the bouncing-ball
// distance formulas.
//
//	bounce eval -H 10 -r 0.5 -n 3
//	bounce verify
//	bounce bench --max-n 4096 --out report.yaml
//	bounce variants
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
