package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-evm-testkit/chain/evm/ethutil"
)

var (
	interfaceIDLong = longDesc(`
		Computes the ERC-165 interface id of a contract ABI: the XOR of all function selectors.

		The file may hold a plain ABI array or a compiler artifact with an "abi" field.
`)

	interfaceIDExample = examples(`
		# Print the interface id of an ABI
		evmtestkit interface-id --abi IERC721.abi.json

		# Also list the selectors that went into it
		evmtestkit interface-id --abi out/IERC721.sol/IERC721.json --selectors
`)
)

// InterfaceID creates the interface-id command.
func (*Commands) InterfaceID() *cobra.Command {
	var (
		abiPath   string
		selectors bool
	)

	cmd := &cobra.Command{
		Use:     "interface-id",
		Short:   "Compute the ERC-165 interface id of an ABI",
		Long:    interfaceIDLong,
		Example: interfaceIDExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(abiPath)
			if err != nil {
				return fmt.Errorf("failed to read abi: %w", err)
			}

			parsed, err := parseABI(b)
			if err != nil {
				return fmt.Errorf("failed to parse abi %s: %w", abiPath, err)
			}

			id, err := ethutil.InterfaceIDOf(parsed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if selectors {
				methods := make([]abi.Method, 0, len(parsed.Methods))
				for _, m := range parsed.Methods {
					methods = append(methods, m)
				}
				slices.SortFunc(methods, func(a, b abi.Method) int {
					return strings.Compare(a.Sig, b.Sig)
				})
				for _, m := range methods {
					if _, err := fmt.Fprintf(out, "%s\t%s\n", hexutil.Encode(m.ID), m.Sig); err != nil {
						return err
					}
				}
			}

			_, err = fmt.Fprintln(out, hexutil.Encode(id[:]))

			return err
		},
	}
	cmd.Flags().StringVar(&abiPath, "abi", "", "Path to the ABI or artifact JSON file (required)")
	cmd.Flags().BoolVar(&selectors, "selectors", false, "List every function selector before the id")
	_ = cmd.MarkFlagRequired("abi")

	return cmd
}

// parseABI accepts a plain ABI array or an artifact object with an "abi" field.
func parseABI(b []byte) (abi.ABI, error) {
	trimmed := bytes.TrimSpace(b)
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		return abi.JSON(bytes.NewReader(trimmed))
	}

	var artifact struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(trimmed, &artifact); err != nil {
		return abi.ABI{}, err
	}
	if len(artifact.ABI) == 0 {
		return abi.ABI{}, errors.New(`artifact has no "abi" field`)
	}

	return abi.JSON(bytes.NewReader(artifact.ABI))
}
