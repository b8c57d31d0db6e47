package gnmiclient

import "fmt"

// DialError covers connect failure, a Capabilities RPC error, a missing
// required YANG model, or a Subscribe RPC error. Local recovery for all of
// these is the same: log, back off, retry unless shutting down.
type DialError struct {
	Dev string
	Op  string
	Err error
}

func (e *DialError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Dev, e.Op, e.Err)
}

func (e *DialError) Unwrap() error {
	return e.Err
}
