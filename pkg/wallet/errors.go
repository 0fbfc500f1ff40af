package wallet

import (
	"errors"
	"fmt"
)

// ErrNotInstalled is returned when connecting a wallet that is not available
var ErrNotInstalled = errors.New("wallet not installed")

// NotInstalledError names the missing wallet
type NotInstalledError struct {
	Kind Kind
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("%s wallet not installed", e.Kind)
}

func (e *NotInstalledError) Is(target error) bool {
	return target == ErrNotInstalled
}

// FamilyMismatchError is returned when a brand wallet cannot serve a chain
type FamilyMismatchError struct {
	Kind  Kind
	Chain string
}

func (e *FamilyMismatchError) Error() string {
	return fmt.Sprintf("%s cannot connect to %s", e.Kind, e.Chain)
}
