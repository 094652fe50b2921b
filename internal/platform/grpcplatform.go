// internal/platform/grpcplatform.go
// GRPCPlatform implements rw.Platform over a gRPC unary call, for
// deployments that front their classfile store with the same gRPC gateway
// the teacher's agent/exporter speaks to. Because protoc codegen cannot be
// run in this environment, the RPC is invoked directly through
// grpc.ClientConn.Invoke against a fixed fully-qualified method name, using
// the protobuf well-known wrapper types (StringValue request, BytesValue
// response) instead of a generated service client — the same wire contract
// a generated client would produce, without the generated code.
package platform

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nodeforge/classforge/internal/logging"
)

// GetClassBytecodeMethod is the fully-qualified gRPC method name the remote
// platform service must expose: a unary RPC taking a StringValue (the
// internal class name) and returning a BytesValue (the raw classfile).
const GetClassBytecodeMethod = "/classforge.platform.ClassPlatform/GetClassBytecode"

// GRPCConfig controls a GRPCPlatform's connection.
type GRPCConfig struct {
	Addr      string
	AuthToken string // sent as metadata key "authorization": "Bearer <token>"
	Insecure  bool   // skip TLS; for local/test gateways only
	Timeout   time.Duration
	Retry     backoff.BackOff
}

// GRPCPlatform implements rw.Platform over a single long-lived ClientConn.
type GRPCPlatform struct {
	cfg  GRPCConfig
	conn *grpc.ClientConn
}

// NewGRPCPlatform creates a client for addr and returns a GRPCPlatform. It
// does not wait for a connection (grpc.NewClient connects lazily on the
// first call), and ctx is not used.
func NewGRPCPlatform(ctx context.Context, cfg GRPCConfig) (*GRPCPlatform, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Retry == nil {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 250 * time.Millisecond
		bo.MaxInterval = 5 * time.Second
		bo.MaxElapsedTime = 30 * time.Second
		cfg.Retry = bo
	}

	// TLS is the expected production transport; Insecure exists for
	// loopback gateways in local/test setups.
	creds := grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12}))
	if cfg.Insecure {
		creds = grpc.WithTransportCredentials(insecure.NewCredentials())
	}

	conn, err := grpc.NewClient(cfg.Addr, creds)
	if err != nil {
		return nil, err
	}
	return &GRPCPlatform{cfg: cfg, conn: conn}, nil
}

// Close releases the underlying connection.
func (g *GRPCPlatform) Close() error { return g.conn.Close() }

// GetClassBytecode implements rw.Platform.
func (g *GRPCPlatform) GetClassBytecode(ctx context.Context, internalName string) ([]byte, error) {
	bo := g.cfg.Retry
	bo.Reset()

	for {
		data, err := g.invoke(ctx, internalName)
		if err == nil {
			return data, nil
		}
		if status.Code(err) == codes.NotFound {
			return nil, &ClassNotFound{}
		}

		next := bo.NextBackOff()
		if next == backoff.Stop {
			return nil, &FetchError{InternalName: internalName, Cause: err}
		}
		logging.Sugar().Debugw("grpc platform fetch retrying", "class", internalName, "err", err)
		select {
		case <-time.After(next):
		case <-ctx.Done():
			return nil, &FetchError{InternalName: internalName, Cause: ctx.Err()}
		}
	}
}

func (g *GRPCPlatform) invoke(ctx context.Context, internalName string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	if g.cfg.AuthToken != "" {
		md := metadata.New(map[string]string{"authorization": "Bearer " + g.cfg.AuthToken})
		ctx = metadata.NewOutgoingContext(ctx, md)
	}

	req := wrapperspb.String(internalName)
	resp := new(wrapperspb.BytesValue)
	if err := g.conn.Invoke(ctx, GetClassBytecodeMethod, req, resp); err != nil {
		return nil, err
	}
	return resp.GetValue(), nil
}
