package mock

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/canopus-network/canopus/client"
	"github.com/canopus-network/canopus/types"
)

// Client is a scriptable in-memory AuthorityClient for tests. Each instance
// plays a single validator: it can be told what to answer, how long to take,
// and how many times to fail before answering.
type Client struct {
	id types.AuthorityID

	mtx     sync.Mutex
	delay   time.Duration
	errs    []error
	respond func(req *types.WaitForEffectsRequest) (types.WaitForEffectsResponse, error)
	calls   int
}

var _ client.AuthorityClient = (*Client)(nil)

// New creates a mock client for the given authority with no scripted
// response; script one with a Respond* method or SetResponseFn before use.
func New(id types.AuthorityID) *Client {
	return &Client{id: id}
}

// ID returns the authority this mock plays.
func (c *Client) ID() types.AuthorityID { return c.id }

// SetDelay makes every call take d before answering. The delay is
// interruptible by context cancellation.
func (c *Client) SetDelay(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.delay = d
}

// FailTimes queues n copies of err; each call consumes one before the
// scripted response becomes reachable.
func (c *Client) FailTimes(n int, err error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	for i := 0; i < n; i++ {
		c.errs = append(c.errs, err)
	}
}

// RespondExecuted scripts an Executed response carrying the digest of the
// given execution data. Details are attached only when the request asks for
// them, as a real validator would.
func (c *Client) RespondExecuted(details *types.ExecutedData) {
	digest := details.Effects.Digest()
	c.SetResponseFn(func(req *types.WaitForEffectsRequest) (types.WaitForEffectsResponse, error) {
		if req.IncludeDetails {
			return &types.ExecutedResponse{EffectsDigest: digest, Details: details}, nil
		}
		return &types.ExecutedResponse{EffectsDigest: digest}, nil
	})
}

// RespondExecutedDigestOnly scripts an Executed response with no retained
// execution data, regardless of whether details were requested.
func (c *Client) RespondExecutedDigestOnly(digest types.EffectsDigest) {
	c.SetResponseFn(func(req *types.WaitForEffectsRequest) (types.WaitForEffectsResponse, error) {
		return &types.ExecutedResponse{EffectsDigest: digest}, nil
	})
}

// RespondRejected scripts a Rejected response with the given reason.
func (c *Client) RespondRejected(reason string) {
	c.SetResponseFn(func(*types.WaitForEffectsRequest) (types.WaitForEffectsResponse, error) {
		return &types.RejectedResponse{Reason: reason}, nil
	})
}

// RespondExpired scripts an Expired response with the given round.
func (c *Client) RespondExpired(round uint64) {
	c.SetResponseFn(func(*types.WaitForEffectsRequest) (types.WaitForEffectsResponse, error) {
		return &types.ExpiredResponse{Round: round}, nil
	})
}

// SetResponseFn scripts an arbitrary per-request response.
func (c *Client) SetResponseFn(fn func(req *types.WaitForEffectsRequest) (types.WaitForEffectsResponse, error)) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.respond = fn
}

// Calls returns how many WaitForEffects calls this mock has served,
// including failed ones.
func (c *Client) Calls() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.calls
}

func (c *Client) WaitForEffects(ctx context.Context, req *types.WaitForEffectsRequest, _ net.Addr) (types.WaitForEffectsResponse, error) {
	c.mtx.Lock()
	c.calls++
	delay := c.delay
	var err error
	if len(c.errs) > 0 {
		err, c.errs = c.errs[0], c.errs[1:]
	}
	respond := c.respond
	c.mtx.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if respond == nil {
		// Unscripted: behave like an unreachable validator.
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return respond(req)
}
