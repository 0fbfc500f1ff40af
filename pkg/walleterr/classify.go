package walleterr

import (
	"errors"

	"github.com/DFXswiss/services-sub002/pkg/constants"
)

// codedError matches any error carrying a JSON-RPC code, including
// go-ethereum rpc.Error values
type codedError interface {
	error
	ErrorCode() int
}

// classifiedError pairs a taxonomy error with the provider error it came from
type classifiedError struct {
	kind  error
	cause error
}

func (e *classifiedError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *classifiedError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// Code extracts the provider error code from err
func Code(err error) (int, bool) {
	var coded codedError
	if errors.As(err, &coded) {
		return coded.ErrorCode(), true
	}
	return 0, false
}

// Classify maps provider error codes onto the error taxonomy:
//   - 4001 becomes ErrUserCancelled
//   - -32002 becomes ErrRequestAlreadyPending
//
// Any other error, with or without a code, is returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	code, ok := Code(err)
	if !ok {
		return err
	}

	switch code {
	case constants.CodeUserRejected:
		if errors.Is(err, ErrUserCancelled) {
			return err
		}
		return &classifiedError{kind: ErrUserCancelled, cause: err}
	case constants.CodeRequestPending:
		if errors.Is(err, ErrRequestAlreadyPending) {
			return err
		}
		return &classifiedError{kind: ErrRequestAlreadyPending, cause: err}
	default:
		return err
	}
}

// IsUserCancelled reports whether err is a user rejection
func IsUserCancelled(err error) bool {
	return errors.Is(Classify(err), ErrUserCancelled)
}
