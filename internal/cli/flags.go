// Package cli holds what the arcade commands share: viper-bound flag
// declarations and the wiring from configuration to wallet, store and client.
package cli

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type (
	FlagType interface {
		string | int | bool | []string
	}

	// Flag is a command-line flag bound to a viper key. Defaults live in the
	// embedded configuration, so a flag only wins when it is set.
	Flag[T FlagType] struct {
		Name        string
		ViperKey    string
		Description string
	}
)

// Declare registers flags on set and binds each one to its viper key.
func Declare[T FlagType](set *pflag.FlagSet, flags ...Flag[T]) error {
	for _, flag := range flags {
		var zero T
		switch any(zero).(type) {
		case string:
			set.String(flag.Name, "", flag.Description)
		case int:
			set.Int(flag.Name, 0, flag.Description)
		case bool:
			set.Bool(flag.Name, false, flag.Description)
		case []string:
			set.StringSlice(flag.Name, nil, flag.Description)
		}

		if err := viper.BindPFlag(flag.ViperKey, set.Lookup(flag.Name)); err != nil {
			return fmt.Errorf("failed to bind flag %s to %s: %w", flag.Name, flag.ViperKey, err)
		}
	}
	return nil
}

// MustDeclare is Declare for package init blocks.
func MustDeclare[T FlagType](set *pflag.FlagSet, flags ...Flag[T]) {
	if err := Declare(set, flags...); err != nil {
		panic(err)
	}
}
