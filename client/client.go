package client

import (
	"context"
	"errors"
	"net"

	"github.com/canopus-network/canopus/types"
)

var (
	// ErrNoResponse is returned if the authority doesn't respond to the
	// request in the given time.
	ErrNoResponse = errors.New("authority failed to respond")
)

// AuthorityClient is the RPC surface the certifier needs from a single
// validator. Implementations own transport, serialization and authentication;
// the certifier only ever issues stateless reads through it.
type AuthorityClient interface {
	// WaitForEffects returns the validator's view of the transaction's
	// execution status. The call blocks until the validator has a status to
	// report or ctx is done.
	//
	// forwardedAddr, when non-nil, identifies the end client on whose behalf
	// the request is made and is propagated to the validator.
	WaitForEffects(ctx context.Context, req *types.WaitForEffectsRequest, forwardedAddr net.Addr) (types.WaitForEffectsResponse, error)
}
