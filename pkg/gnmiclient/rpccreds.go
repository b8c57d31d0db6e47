package gnmiclient

import (
	"context"

	"google.golang.org/grpc/credentials"
)

// perRpcCreds carries device username/password as gRPC per-RPC metadata.
type perRpcCreds struct {
	username string
	password string
}

// GetRequestMetadata implements the required credentials interface
func (c *perRpcCreds) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{
		"username": c.username,
		"password": c.password,
	}, nil
}

// RequireTransportSecurity is false: only the insecure transport hook is
// wired (see dial.go); TLS remains an open, unimplemented hook per spec
// Non-goals.
func (c *perRpcCreds) RequireTransportSecurity() bool {
	return false
}

// newPerRpcCreds creates a new instance of perRpcCreds, used for dialing the target device.
func newPerRpcCreds(user, pwd string) credentials.PerRPCCredentials {
	return &perRpcCreds{username: user, password: pwd}
}
