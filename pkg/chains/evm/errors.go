package evm

import "fmt"

// RPCError represents an RPC-related error
type RPCError struct {
	Endpoint string
	Err      error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error on %s: %v", e.Endpoint, e.Err)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}

// InvalidSignatureError is returned for a signature that cannot be parsed
type InvalidSignatureError struct {
	Signature string
	Reason    string
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("invalid signature %q: %s", e.Signature, e.Reason)
}
