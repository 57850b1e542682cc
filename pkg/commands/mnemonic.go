package commands

import (
	"fmt"

	"github.com/cosmos/go-bip39"
	"github.com/spf13/cobra"
)

var (
	mnemonicGenerateLong = longDesc(`
		Generates a new BIP39 mnemonic for test accounts.
`)

	mnemonicGenerateExample = examples(`
		# Generate a 12 word mnemonic
		evmtestkit mnemonic generate

		# Generate a 24 word mnemonic
		evmtestkit mnemonic generate --bits 256
`)
)

// Mnemonic creates the mnemonic command group.
func (c *Commands) Mnemonic() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mnemonic",
		Short: "Mnemonic commands",
	}
	cmd.AddCommand(c.newMnemonicGenerate())

	return cmd
}

func (*Commands) newMnemonicGenerate() *cobra.Command {
	var bits int

	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate a BIP39 mnemonic",
		Long:    mnemonicGenerateLong,
		Example: mnemonicGenerateExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entropy, err := bip39.NewEntropy(bits)
			if err != nil {
				return fmt.Errorf("failed to generate entropy: %w", err)
			}
			mnemonic, err := bip39.NewMnemonic(entropy)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), mnemonic)

			return err
		},
	}
	cmd.Flags().IntVar(&bits, "bits", 128, "Entropy size in bits, a multiple of 32 from 128 to 256")

	return cmd
}
