// agrisense 是 AgriSense 服务的命令行客户端
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, cleanup := newRootCmd(loadApp)
	err := root.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		}
		stop()
		os.Exit(1)
	}
}
