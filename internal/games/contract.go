package games

import (
	"fmt"

	"github.com/compose-network/monad-arcade/internal/errs"
)

type Name string

const (
	NameDiceRoll  Name = "DiceRoll"
	NameSpinWheel Name = "SpinWheel"
	NameBlackJack Name = "BlackJack"
	NameMines     Name = "Mines"
	NameHighLow   Name = "HighLow"
)

// All lists every deployable game in deployment order.
var All = []Name{
	NameDiceRoll,
	NameSpinWheel,
	NameBlackJack,
	NameMines,
	NameHighLow,
}

var known = func() map[Name]struct{} {
	m := make(map[Name]struct{}, len(All))
	for _, name := range All {
		m[name] = struct{}{}
	}
	return m
}()

// Method and event surface every game contract exposes.
const (
	MethodPlaceBet         = "placeBet"
	MethodCashOut          = "cashOut"
	MethodGetPlayerBalance = "getPlayerBalance"
	MethodGetActiveGame    = "getActiveGame"
)

func (n Name) Valid() bool {
	_, ok := known[n]
	return ok
}

func (n Name) String() string {
	return string(n)
}

// Parse validates s against the fixed set of game names.
func Parse(s string) (Name, error) {
	name := Name(s)
	if !name.Valid() {
		return "", fmt.Errorf("%w: %q", errs.ErrUnknownContract, s)
	}
	return name, nil
}

// ParseList validates names in order, rejecting duplicates.
func ParseList(names []string) ([]Name, error) {
	out := make([]Name, 0, len(names))
	seen := make(map[Name]struct{}, len(names))
	for _, s := range names {
		name, err := Parse(s)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("contract %s listed twice", name)
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}
