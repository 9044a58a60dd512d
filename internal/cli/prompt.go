package cli

import (
	"fmt"

	"github.com/compose-network/monad-arcade/internal/network"
	"github.com/compose-network/monad-arcade/internal/wallet"
	"github.com/pterm/pterm"
)

// ConfirmSwitch asks on the terminal before moving the wallet to another
// network. With assumeYes every switch is approved without asking.
func ConfirmSwitch(assumeYes bool) wallet.Confirm {
	return func(current wallet.Network, target network.Params) bool {
		if assumeYes {
			return true
		}

		question := fmt.Sprintf("Wallet is on %s (chain %d). Switch to %s (chain %d)?",
			current.Name, current.ChainID, target.Name, target.ChainID)

		ok, err := pterm.DefaultInteractiveConfirm.
			WithDefaultText(question).
			WithDefaultValue(true).
			Show()
		if err != nil {
			return false
		}
		return ok
	}
}
