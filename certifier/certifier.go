package certifier

import (
	"context"
	"fmt"
	mrand "math/rand"
	"net"
	"time"

	"github.com/mroth/weightedrand"

	"github.com/canopus-network/canopus/client"
	"github.com/canopus-network/canopus/libs/log"
	canrand "github.com/canopus-network/canopus/libs/rand"
	"github.com/canopus-network/canopus/types"
)

const (
	defaultRPCTimeout       = 2 * time.Second
	defaultMaxFetchAttempts = 10
	defaultAckBackoffMin    = 1 * time.Second
	defaultAckBackoffMax    = 2 * time.Second

	// Pause between full-effects fetch passes when the previous pass failed
	// outright, so a hard-down network does not spin the cross-check loop.
	refetchPause = 100 * time.Millisecond
)

// Certifier determines the single authoritative, finalized execution result
// of a transaction already accepted into the consensus sequence, against a
// committee whose members may be slow, offline or lying.
//
// It runs two phases concurrently: a digest-only acknowledgment quorum
// across the whole committee, and a full-effects fetch from individual
// validators; the full result is only returned once its digest equals the
// quorum-certified one.
type Certifier struct {
	committee *types.Committee
	clients   map[types.AuthorityID]client.AuthorityClient

	logger  log.Logger
	metrics *Metrics

	rpcTimeout       time.Duration
	maxFetchAttempts int
	ackBackoffMin    time.Duration
	ackBackoffMax    time.Duration

	rng               *mrand.Rand
	weightedSelection bool
	chooser           *weightedrand.Chooser
}

// Request identifies the transaction to certify, plus per-call options.
type Request struct {
	Epoch             uint64
	TransactionDigest types.TransactionDigest
	Position          types.ConsensusPosition

	// ForwardedClientAddr, when non-nil, is passed through to every RPC.
	ForwardedClientAddr net.Addr

	// KnownEffects carries a full execution result already obtained at
	// submission time. When set, the first full-effects fetch is skipped;
	// the result is still cross-checked against the certified digest.
	KnownEffects *types.ExecutedData
}

// NewCertifier creates a certifier for the given committee. clients must
// contain an AuthorityClient for every committee member.
func NewCertifier(
	committee *types.Committee,
	clients map[types.AuthorityID]client.AuthorityClient,
	options ...Option,
) (*Certifier, error) {
	if committee == nil {
		return nil, fmt.Errorf("nil committee")
	}
	for _, val := range committee.Validators {
		if clients[val.ID] == nil {
			return nil, fmt.Errorf("no client for committee member %s", val.ID)
		}
	}

	c := &Certifier{
		committee:        committee,
		clients:          clients,
		logger:           log.NewNopLogger(),
		metrics:          NopMetrics(),
		rpcTimeout:       defaultRPCTimeout,
		maxFetchAttempts: defaultMaxFetchAttempts,
		ackBackoffMin:    defaultAckBackoffMin,
		ackBackoffMax:    defaultAckBackoffMax,
	}
	for _, o := range options {
		o(c)
	}

	if c.maxFetchAttempts < 1 {
		return nil, fmt.Errorf("max fetch attempts must be at least 1, got %d", c.maxFetchAttempts)
	}
	if c.weightedSelection {
		choices := make([]weightedrand.Choice, 0, committee.Size())
		for _, val := range committee.Validators {
			if val.VotingPower == 0 {
				continue
			}
			choices = append(choices, weightedrand.Choice{Item: val.ID, Weight: uint(val.VotingPower)})
		}
		chooser, err := weightedrand.NewChooser(choices...)
		if err != nil {
			return nil, fmt.Errorf("building weighted target chooser: %w", err)
		}
		c.chooser = chooser
	}
	return c, nil
}

type fetchResult struct {
	digest types.EffectsDigest
	data   *types.ExecutedData
	err    error
}

type ackOutcome struct {
	digest types.EffectsDigest
	err    error
}

// Certify drives a single certification attempt to its terminal state.
//
// The acknowledgment collector and the full-effects fetcher start
// immediately and run concurrently. Once a digest is certified, the full
// result is compared against it and re-fetched from another validator on
// mismatch or failure; the cross-check loop has no bound of its own and
// relies on each fetch pass's bounded attempt budget plus ctx for
// termination. This is sound as long as a certified digest implies at least
// one honest validator retains matching execution data.
//
// If the collector itself fails (rejected, expired, forked), that failure is
// returned immediately without waiting for the fetcher. All outstanding
// requests are abandoned when Certify returns; they are stateless reads, so
// this is safe.
func (c *Certifier) Certify(ctx context.Context, req Request) (*types.QuorumTransactionResponse, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rng := c.rng
	if rng == nil {
		rng = canrand.NewRand()
	}

	fetchCh := make(chan fetchResult, 1)
	fetch := func() {
		digest, data, err := c.getFullEffects(ctx, req, rng)
		select {
		case fetchCh <- fetchResult{digest: digest, data: data, err: err}:
		case <-ctx.Done():
		}
	}
	if req.KnownEffects != nil {
		fetchCh <- fetchResult{
			digest: req.KnownEffects.Effects.Digest(),
			data:   req.KnownEffects,
		}
	} else {
		go fetch()
	}

	ackCh := make(chan ackOutcome, 1)
	go func() {
		digest, err := c.waitForAcknowledgments(ctx, req)
		ackCh <- ackOutcome{digest: digest, err: err}
	}()

	var certified types.EffectsDigest
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ack := <-ackCh:
		if ack.err != nil {
			// Quorum-level outcome is terminal; the in-flight full-effects
			// request is abandoned.
			return nil, ack.err
		}
		certified = ack.digest
	}

	for {
		var fr fetchResult
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case fr = <-fetchCh:
		}

		switch {
		case fr.err != nil:
			c.logger.Debug("failed to get full effects, retrying", "err", fr.err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(refetchPause):
			}
		case fr.digest != certified:
			// Expected under normal async skew: the responding validator may
			// not have executed yet, or may be lying. Either way another
			// validator is asked.
			c.logger.Info("full effects digest mismatch",
				"effects_digest", fr.digest, "certified_digest", certified)
			c.metrics.EffectsDigestMismatches.Add(1)
		default:
			return c.quorumTransactionResponse(fr.digest, fr.data), nil
		}

		go fetch()
	}
}

func (c *Certifier) validateRequest(req Request) error {
	if req.TransactionDigest.IsZero() {
		return &ErrInvalidRequest{Reason: "empty transaction digest"}
	}
	if req.Epoch != c.committee.Epoch {
		return &ErrInvalidRequest{Reason: fmt.Sprintf(
			"request epoch %d does not match committee epoch %d", req.Epoch, c.committee.Epoch)}
	}
	if req.KnownEffects != nil && req.KnownEffects.Effects.TransactionDigest != req.TransactionDigest {
		return &ErrInvalidRequest{Reason: "known effects belong to a different transaction"}
	}
	return nil
}

// quorumTransactionResponse creates the final full response.
func (c *Certifier) quorumTransactionResponse(
	digest types.EffectsDigest,
	data *types.ExecutedData,
) *types.QuorumTransactionResponse {
	c.metrics.ExecutedTransactions.Add(1)
	c.logger.Debug("transaction executed", "effects_digest", digest)

	resp := &types.QuorumTransactionResponse{
		Effects: types.FinalizedEffects{
			Effects:      data.Effects,
			FinalityInfo: types.NewQuorumExecuted(data.Effects.ExecutedEpoch),
		},
		Events: data.Events,
	}
	if len(data.InputObjects) > 0 {
		resp.InputObjects = data.InputObjects
	}
	if len(data.OutputObjects) > 0 {
		resp.OutputObjects = data.OutputObjects
	}
	return resp
}
