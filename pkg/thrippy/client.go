// Package thrippy resolves Slack webhook URLs that are stored as
// link secrets in a [Thrippy] server, instead of in local configuration.
//
// [Thrippy]: https://github.com/tzrikka/thrippy
package thrippy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	thrippypb "github.com/tzrikka/thrippy-api/thrippy/v1"
)

const (
	timeout = 3 * time.Second

	// WebhookURLKey is the name of the link secret which holds the webhook URL.
	WebhookURLKey = "webhook_url"
)

var ErrLinkNotFound = errors.New("Thrippy link not found")

// Connection creates a gRPC client connection to the given Thrippy server address.
// It supports both secure and insecure connections, based on the given credentials.
func Connection(addr string, creds credentials.TransportCredentials) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
}

// LinkSecrets returns the saved secrets of a given Thrippy link.
// This function reports gRPC errors, but if the link is not found it returns nothing.
func LinkSecrets(ctx context.Context, grpcAddr string, creds credentials.TransportCredentials, linkID string) (map[string]string, error) {
	l := zerolog.Ctx(ctx)

	conn, err := Connection(grpcAddr, creds)
	if err != nil {
		l.Error().Stack().Err(err).Send()
		return nil, err
	}
	defer conn.Close()

	c := thrippypb.NewThrippyServiceClient(conn)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.GetCredentials(ctx, thrippypb.GetCredentialsRequest_builder{
		LinkId: proto.String(linkID),
	}.Build())
	if err != nil {
		if status.Code(err) != codes.NotFound {
			l.Error().Stack().Err(err).Send()
			return nil, err
		}
		return nil, nil
	}

	return resp.GetCredentials(), nil
}

// WebhookURL returns the Slack webhook URL which is stored in the secrets
// of a given Thrippy link. Unlike [LinkSecrets], a missing link is an error.
func WebhookURL(ctx context.Context, grpcAddr string, creds credentials.TransportCredentials, linkID string) (string, error) {
	m, err := LinkSecrets(ctx, grpcAddr, creds, linkID)
	if err != nil {
		return "", fmt.Errorf("failed to get Thrippy link secrets: %w", err)
	}
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrLinkNotFound, linkID)
	}

	u := m[WebhookURLKey]
	if u == "" {
		return "", fmt.Errorf("Thrippy link %s has no %q secret", linkID, WebhookURLKey)
	}

	return u, nil
}
