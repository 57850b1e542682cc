// Command evmtestkit derives test wallets, computes interface ids and sends instrumented
// JSON-RPC requests to EVM nodes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap/zapcore"

	"github.com/smartcontractkit/chainlink-evm-testkit/pkg/commands"
	"github.com/smartcontractkit/chainlink-evm-testkit/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := []logger.Option{logger.WithConsoleEncoding()}
	if lvl, ok := os.LookupEnv("EVM_TESTKIT_LOG_LEVEL"); ok {
		parsed, err := zapcore.ParseLevel(lvl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid EVM_TESTKIT_LOG_LEVEL: %v\n", err)
			return 1
		}
		opts = append(opts, logger.WithLevel(parsed))
	}

	lggr, err := logger.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = lggr.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.New(lggr).Root().ExecuteContext(ctx); err != nil {
		return 1
	}

	return 0
}
