package commands

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-evm-testkit/chain/evm/ethutil"
)

// Address creates the address command group.
func (c *Commands) Address() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Address ordering commands",
	}
	cmd.AddCommand(
		c.newAddressCompare(),
		c.newAddressSort(),
	)

	return cmd
}

func (*Commands) newAddressCompare() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Print -1, 0 or 1 comparing two addresses as unsigned integers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			got, err := ethutil.CompareAddrHex(args[0], args[1])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), got)

			return err
		},
	}
}

func (*Commands) newAddressSort() *cobra.Command {
	return &cobra.Command{
		Use:   "sort <address>...",
		Short: "Sort addresses in ascending order, as owner lists of multisig contracts expect",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs := make([]common.Address, 0, len(args))
			for _, arg := range args {
				if !common.IsHexAddress(arg) {
					return fmt.Errorf("%w: %q", ethutil.ErrInvalidAddress, arg)
				}
				addrs = append(addrs, common.HexToAddress(arg))
			}

			ethutil.SortAddresses(addrs)

			for _, addr := range addrs {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), addr.Hex()); err != nil {
					return err
				}
			}

			return nil
		},
	}
}
