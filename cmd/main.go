package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/multierr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if terr := teardown(); terr != nil {
		fmt.Fprintf(os.Stderr, "Unable to close log: %v\n", terr)
		err = multierr.Append(err, terr)
	}
	if err != nil {
		os.Exit(1)
	}
}
