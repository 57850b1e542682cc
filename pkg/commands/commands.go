// Package commands provides the cobra commands of the evmtestkit CLI.
//
// The Commands factory shares one logger and one set of dependencies across all commands:
//
//	cmds := commands.New(lggr)
//	if err := cmds.Root().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
//
// Tests inject fakes through NewWithDeps.
package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-evm-testkit/pkg/logger"
)

// defaultConfigPath is read when --config is not given. A missing file falls back to the
// environment.
const defaultConfigPath = "evmtestkit.yml"

var errInvalidInput = errors.New("invalid input")

// Commands provides a factory for creating CLI commands with shared configuration.
// This allows setting the logger once and reusing it across all commands.
type Commands struct {
	lggr logger.Logger
	deps Deps
}

// New creates a new Commands factory with the given logger and the production dependencies.
func New(lggr logger.Logger) *Commands {
	return NewWithDeps(lggr, Deps{})
}

// NewWithDeps creates a Commands factory with injected dependencies. Nil fields use the
// production defaults.
func NewWithDeps(lggr logger.Logger, deps Deps) *Commands {
	deps.applyDefaults()

	return &Commands{lggr: lggr, deps: deps}
}

// Root returns the evmtestkit root command with every subcommand attached.
func (c *Commands) Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "evmtestkit",
		Short:        "Test wallets and instrumented JSON-RPC calls for EVM nodes",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().
		StringP("config", "c", defaultConfigPath, "Path to the config file. Environment variables override its values")

	cmd.AddCommand(
		c.Mnemonic(),
		c.Wallet(),
		c.InterfaceID(),
		c.Address(),
		c.RPC(),
	)

	return cmd
}
