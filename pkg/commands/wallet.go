package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-evm-testkit/chain/evm/ethutil"
	"github.com/smartcontractkit/chainlink-evm-testkit/chain/evm/wallet"
	"github.com/smartcontractkit/chainlink-evm-testkit/pkg/config"
)

var (
	walletDeriveLong = longDesc(`
		Derives test accounts from the configured mnemonic along m/44'/60'/0'/0/<index>.

		The index defaults to wallet.index of the config.
`)

	walletDeriveExample = examples(`
		# Derive the configured account
		evmtestkit wallet derive

		# Derive the first five accounts including their private keys
		evmtestkit wallet derive --index 0 --count 5 --show-private-key
`)

	walletSignLong = longDesc(`
		Signs a message with eth_sign semantics: the message is hashed with keccak256, signed as a
		personal message and suffixed with the eth_sign signature type byte.
`)

	walletSignExample = examples(`
		# Sign a UTF-8 message
		evmtestkit wallet sign "hello world"

		# Sign a precomputed 32 byte hash
		evmtestkit wallet sign --hashed 0x47173285a8d7341e5e972fc677286384f802f8ef42a5ec5f03bbfa254cb01fad
`)
)

// Wallet creates the wallet command group.
func (c *Commands) Wallet() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Test wallet commands",
	}
	cmd.AddCommand(
		c.newWalletDerive(),
		c.newWalletSign(),
	)
	cmd.PersistentFlags().Uint32P("index", "i", 0, "Address index (default wallet.index from the config)")

	return cmd
}

func (c *Commands) newWalletDerive() *cobra.Command {
	var (
		count          uint32
		showPrivateKey bool
	)

	cmd := &cobra.Command{
		Use:     "derive",
		Short:   "Derive test accounts from the mnemonic",
		Long:    walletDeriveLong,
		Example: walletDeriveExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadWalletConfig(cmd)
			if err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("%w: count must be at least 1", errInvalidInput)
			}

			first := walletIndex(cmd, cfg)
			for i := range count {
				w, err := wallet.FromMnemonicIndex(cfg.Mnemonic, first+i)
				if err != nil {
					return err
				}

				line := fmt.Sprintf("%d\t%s\t%s", first+i, w.Path(), w.Address().Hex())
				if showPrivateKey {
					line += "\t" + hex.EncodeToString(crypto.FromECDSA(w.PrivateKey()))
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}

			return nil
		},
	}
	cmd.Flags().Uint32Var(&count, "count", 1, "Number of consecutive accounts to derive")
	cmd.Flags().BoolVar(&showPrivateKey, "show-private-key", false, "Print the hex encoded private keys")

	return cmd
}

func (c *Commands) newWalletSign() *cobra.Command {
	var (
		hashed   bool
		hexInput bool
	)

	cmd := &cobra.Command{
		Use:     "sign <message>",
		Short:   "Sign a message with eth_sign semantics",
		Long:    walletSignLong,
		Example: walletSignExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadWalletConfig(cmd)
			if err != nil {
				return err
			}

			message := []byte(args[0])
			if hexInput || hashed {
				message, err = hexutil.Decode(args[0])
				if err != nil {
					return fmt.Errorf("%w: message is not 0x prefixed hex: %w", errInvalidInput, err)
				}
			}

			w, err := wallet.FromMnemonicIndex(cfg.Mnemonic, walletIndex(cmd, cfg))
			if err != nil {
				return err
			}

			sig, err := ethutil.EthSign(w, message, hashed)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", w.Address().Hex(), hexutil.Encode(sig))

			return err
		},
	}
	cmd.Flags().BoolVar(&hashed, "hashed", false, "Treat the message as a precomputed 0x prefixed 32 byte hash")
	cmd.Flags().BoolVar(&hexInput, "hex", false, "Decode the message from 0x prefixed hex")

	return cmd
}

// loadWalletConfig loads the config and checks that it carries a usable mnemonic.
func (c *Commands) loadWalletConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// walletIndex returns the --index flag if it was set and the configured index otherwise.
func walletIndex(cmd *cobra.Command, cfg *config.Config) uint32 {
	if cmd.Flags().Changed("index") {
		index, _ := cmd.Flags().GetUint32("index")
		return index
	}

	return cfg.Wallet.Index
}
