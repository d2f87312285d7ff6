package main

import (
	"context"
	"fmt"
	"os"

	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"go.uber.org/zap"
)

const usage = `Test latency via TCP/UDP

Usage:
  latency server [flags]              start an echo server
  latency client [flags] <host:port>  start a test client

Run "latency <command> -h" for the flags.`

func main() {
	ctx := context.Background()
	defer xcommon.Recover(ctx)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "server":
		err = runServer(ctx, os.Args[2:])
	case "client":
		err = runClient(ctx, os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		xlog.Get(ctx).Error("Exit with error.", zap.Any("err", err))
		os.Exit(1)
	}
}
