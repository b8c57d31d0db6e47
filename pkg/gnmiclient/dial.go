package gnmiclient

import (
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
)

// newDialOptions builds the gRPC dial options for one device: a generous
// receive size, the library's default backoff, and per-RPC username/password
// credentials over an insecure channel. TLS is an open hook per spec
// Non-goals — not wired here.
func (c *Client) newDialOptions() []grpc.DialOption {
	opts := []grpc.DialOption{
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(math.MaxInt32)),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           backoff.DefaultConfig,
			MinConnectTimeout: 20 * time.Second,
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}

	if c.config.User != "" && c.config.Password != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(newPerRpcCreds(c.config.User, c.config.Password)))
	}
	return opts
}
