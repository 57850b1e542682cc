package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-evm-testkit/chain/evm/rpcclient"
)

var (
	rpcSendLong = longDesc(`
		Sends a single JSON-RPC request through the instrumented client and prints its result.

		Each parameter is decoded as JSON when it is valid JSON and passed as a string otherwise.
		The request as recorded in the client's request log is printed to stderr.
`)

	rpcSendExample = examples(`
		# Current block number of the configured node
		evmtestkit rpc send eth_blockNumber

		# Balance of an account at the latest block
		evmtestkit rpc send eth_getBalance 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266 latest

		# Call against another node
		evmtestkit rpc send --url http://127.0.0.1:9545 eth_call '{"to":"0x5FbDB2315678afecb367f032d93F642f64180aa3","data":"0x06fdde03"}' latest
`)
)

// RPC creates the rpc command group.
func (c *Commands) RPC() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rpc",
		Short: "JSON-RPC commands",
	}
	cmd.AddCommand(
		c.newRPCSend(),
		c.newRPCNetwork(),
	)
	cmd.PersistentFlags().String("url", "", "Node endpoint (default rpc.url from the config)")

	return cmd
}

func (c *Commands) newRPCSend() *cobra.Command {
	return &cobra.Command{
		Use:     "send <method> [params-json...]",
		Short:   "Send a JSON-RPC request",
		Long:    rpcSendLong,
		Example: rpcSendExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd, func(ctx context.Context, client *rpcclient.Client) error {
				params := make([]any, 0, len(args)-1)
				for _, arg := range args[1:] {
					params = append(params, parseParam(arg))
				}

				result, sendErr := client.Send(ctx, args[0], params...)

				req, err := client.PastRequest(0)
				if err != nil {
					return err
				}
				b, err := json.Marshal(req)
				if err != nil {
					return err
				}
				cmd.PrintErrln("request:", string(b))

				if sendErr != nil {
					if code, ok := rpcclient.ErrorCode(sendErr); ok {
						return fmt.Errorf("%s failed with code %d: %w", args[0], code, sendErr)
					}

					return fmt.Errorf("%s failed: %w", args[0], sendErr)
				}

				return printJSON(cmd, result)
			})
		},
	}
}

func (c *Commands) newRPCNetwork() *cobra.Command {
	return &cobra.Command{
		Use:   "network",
		Short: "Resolve the node's chain id to its chain-selectors network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd, func(ctx context.Context, client *rpcclient.Client) error {
				n, err := client.DetectNetwork(ctx)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "chain id:\t%d\nname:\t\t%s\nselector:\t%d\n",
					n.ChainID, n.Name, n.Selector)

				return err
			})
		},
	}
}

// withClient connects to the configured node, checks its network when a chain id is
// configured and runs fn with the client.
func (c *Commands) withClient(
	cmd *cobra.Command, fn func(ctx context.Context, client *rpcclient.Client) error,
) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		cfg.RPC.URL = url
		cfg.RPC.BackupURLs = nil
	}
	if cfg.RPC.URL == "" {
		return errors.New("no endpoint: set rpc.url in the config, EVM_TESTKIT_RPC_URL or --url")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	transport, closeFn, err := c.dialNode(ctx, cfg.RPC)
	if err != nil {
		return err
	}
	defer closeFn()

	opts := []rpcclient.Option{rpcclient.WithLogger(c.lggr.Named("rpcclient"))}
	if cfg.RPC.ChainID != 0 {
		opts = append(opts, rpcclient.WithChainID(cfg.RPC.ChainID))
	}

	client, err := rpcclient.NewClient(transport, opts...)
	if err != nil {
		return err
	}

	if cfg.RPC.ChainID != 0 {
		if _, err := client.DetectNetwork(ctx); err != nil {
			return err
		}
	}

	return fn(ctx, client)
}

// parseParam passes valid JSON through untouched and treats anything else as a string.
func parseParam(s string) any {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}

	return s
}

func printJSON(cmd *cobra.Command, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to format result: %w", err)
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), buf.String())

	return err
}
