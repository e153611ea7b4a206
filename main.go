package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/hubheight/cmd"
	"github.com/tphakala/hubheight/internal/buildinfo"
)

// version and buildDate are set with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   string
	buildDate string
)

func main() {
	info := buildinfo.NewContext(version, buildDate)
	ctx, stop := signal.NotifyContext(buildinfo.WithContext(context.Background(), info), os.Interrupt, syscall.SIGTERM)

	rootCmd := cmd.RootCommand(info)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Command execution error: %v\n", err)
		os.Exit(1)
	}
}
