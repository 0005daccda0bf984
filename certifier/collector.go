package certifier

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/canopus-network/canopus/client"
	canrand "github.com/canopus-network/canopus/libs/rand"
	"github.com/canopus-network/canopus/types"
)

type ack struct {
	authority types.AuthorityID
	resp      types.WaitForEffectsResponse
}

// waitForAcknowledgments broadcasts a digest-only status query to every
// committee member and folds the answers, in arrival order, until one of the
// decision rules resolves:
//
//  1. a digest's weight reaches the quorum threshold: that digest is
//     certified;
//  2. a quorum's worth of responses has arrived and either the combined
//     rejected+expired weight reaches the validity threshold (no execution
//     quorum can still form), or no digest can reach quorum even with all
//     unheard-from stake (forked);
//  3. before a quorum of responses, the rejected weight alone or the expired
//     weight alone reaches the validity threshold.
//
// Each member is queried by its own goroutine that retries transient RPC
// failures indefinitely; it is this loop, not the member tasks, that decides
// when to stop waiting. Remaining tasks are released via ctx when the caller
// returns.
func (c *Certifier) waitForAcknowledgments(ctx context.Context, req Request) (types.EffectsDigest, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wireReq := &types.WaitForEffectsRequest{
		Epoch:             req.Epoch,
		TransactionDigest: req.TransactionDigest,
		Position:          req.Position,
		IncludeDetails:    false,
	}

	acks := make(chan ack, c.committee.Size())
	g, gctx := errgroup.WithContext(ctx)
	for _, val := range c.committee.Validators {
		id := val.ID
		cl := c.clients[id]
		g.Go(func() error {
			resp, err := c.waitForAcknowledgmentRPC(gctx, id, cl, wireReq, req)
			if err != nil {
				// Only context cancellation escapes the retry loop.
				return nil
			}
			select {
			case acks <- ack{authority: id, resp: resp}:
			case <-gctx.Done():
			}
			return nil
		})
	}
	// Close the channel once every member has answered, so the fold can
	// observe "all responses are in".
	go func() {
		_ = g.Wait()
		close(acks)
	}()

	return c.foldAcknowledgments(ctx, start, acks)
}

// foldAcknowledgments consumes acknowledgments in arrival order and applies
// the decision rules until one resolves or the channel closes.
func (c *Certifier) foldAcknowledgments(
	ctx context.Context,
	start time.Time,
	acks <-chan ack,
) (types.EffectsDigest, error) {
	var (
		executed = make(map[types.EffectsDigest]*StakeAggregator[struct{}])
		rejected = NewStakeAggregator[string](c.committee)
		expired  = NewStakeAggregator[uint64](c.committee)
		voted    = make(map[types.AuthorityID]bool, c.committee.Size())
	)

	for a := range acks {
		// Every validator yields at most one response, so a repeat here is a
		// collector defect, not evidence of validator misbehavior.
		if voted[a.authority] {
			c.metrics.DuplicateAcks.Add(1)
			c.logger.Error("duplicate acknowledgment", "authority", a.authority)
			continue
		}
		voted[a.authority] = true

		switch resp := a.resp.(type) {
		case *types.ExecutedResponse:
			agg, ok := executed[resp.EffectsDigest]
			if !ok {
				agg = NewStakeAggregator[struct{}](c.committee)
				executed[resp.EffectsDigest] = agg
			}
			crossedQuorum, err := agg.Add(a.authority, struct{}{})
			if err != nil {
				c.metrics.DuplicateAcks.Add(1)
				c.logger.Error("vote bookkeeping failure", "authority", a.authority, "err", err)
				continue
			}
			if crossedQuorum {
				// The quorum rule guarantees at most one digest can reach
				// quorum honestly, so weight on other digests is reported but
				// does not invalidate this result.
				for otherDigest, otherAgg := range executed {
					if otherDigest != resp.EffectsDigest && otherAgg.TotalVotes() > 0 {
						c.logger.Info("effects digest inconsistency detected",
							"quorum_digest", resp.EffectsDigest,
							"quorum_weight", agg.TotalVotes(),
							"other_digest", otherDigest,
							"other_weight", otherAgg.TotalVotes())
						c.metrics.DigestInconsistencies.Add(1)
					}
				}
				c.metrics.AckLatency.Observe(time.Since(start).Seconds())
				return resp.EffectsDigest, nil
			}
		case *types.RejectedResponse:
			if _, err := rejected.Add(a.authority, resp.Reason); err != nil {
				c.logger.Error("vote bookkeeping failure", "authority", a.authority, "err", err)
				continue
			}
			c.metrics.RejectionAcks.Add(1)
		case *types.ExpiredResponse:
			if _, err := expired.Add(a.authority, resp.Round); err != nil {
				c.logger.Error("vote bookkeeping failure", "authority", a.authority, "err", err)
				continue
			}
			c.metrics.ExpirationAcks.Add(1)
		}

		var executedWeight int64
		for _, agg := range executed {
			executedWeight += agg.TotalVotes()
		}
		var (
			totalSeen = executedWeight + rejected.TotalVotes() + expired.TotalVotes()
			remaining = c.committee.TotalVotingPower() - totalSeen
			quorum    = c.committee.QuorumThreshold()
			validity  = c.committee.ValidityThreshold()
		)

		if totalSeen >= quorum {
			if rejected.TotalVotes()+expired.TotalVotes() >= validity {
				// No quorum for execution can still form; waiting further
				// cannot help.
				return types.EffectsDigest{}, &ErrTransactionRejectedOrExpired{
					RejectedWeight: rejected.TotalVotes(),
					ExpiredWeight:  expired.TotalVotes(),
					Reasons:        rejected.Statuses(),
					Rounds:         expired.Statuses(),
				}
			}
			quorumFeasible := false
			for _, agg := range executed {
				if agg.TotalVotes()+remaining >= quorum {
					quorumFeasible = true
					break
				}
			}
			if !quorumFeasible {
				return types.EffectsDigest{}, c.forkedExecutionError(executed, rejected, expired, totalSeen)
			}
		} else {
			// These fire before a quorum's worth of responses has arrived,
			// giving a faster, more specific error while the network is
			// still healthy.
			if rejected.ReachedValidityThreshold() {
				return types.EffectsDigest{}, &ErrTransactionRejected{
					Weight:  rejected.TotalVotes(),
					Reasons: rejected.Statuses(),
				}
			}
			if expired.ReachedValidityThreshold() {
				return types.EffectsDigest{}, &ErrTransactionExpired{
					Weight: expired.TotalVotes(),
					Rounds: expired.Statuses(),
				}
			}
		}
	}

	// The channel also closes when ctx releases the member tasks early;
	// cancellation is not evidence of a fork.
	if err := ctx.Err(); err != nil {
		return types.EffectsDigest{}, err
	}

	// Every committee member has responded without certifying a digest or
	// accumulating a decisive rejection/expiration weight.
	var executedWeight int64
	for _, agg := range executed {
		executedWeight += agg.TotalVotes()
	}
	totalSeen := executedWeight + rejected.TotalVotes() + expired.TotalVotes()
	return types.EffectsDigest{}, c.forkedExecutionError(executed, rejected, expired, totalSeen)
}

func (c *Certifier) forkedExecutionError(
	executed map[types.EffectsDigest]*StakeAggregator[struct{}],
	rejected *StakeAggregator[string],
	expired *StakeAggregator[uint64],
	totalSeen int64,
) *ErrForkedExecution {
	var executedWeight int64
	digests := make([]DigestWeight, 0, len(executed))
	for digest, agg := range executed {
		executedWeight += agg.TotalVotes()
		digests = append(digests, DigestWeight{Digest: digest, Weight: agg.TotalVotes()})
	}
	return &ErrForkedExecution{
		TotalResponsesWeight: totalSeen,
		ExecutedWeight:       executedWeight,
		RejectedWeight:       rejected.TotalVotes(),
		ExpiredWeight:        expired.TotalVotes(),
		Digests:              digests,
		Reasons:              rejected.Statuses(),
	}
}

// waitForAcknowledgmentRPC queries one validator for a digest-only status,
// retrying on any error with a randomized backoff until the validator
// answers or ctx is done.
func (c *Certifier) waitForAcknowledgmentRPC(
	ctx context.Context,
	id types.AuthorityID,
	cl client.AuthorityClient,
	req *types.WaitForEffectsRequest,
	parent Request,
) (types.WaitForEffectsResponse, error) {
	rng := canrand.NewRand()
	for attempt := 0; ; attempt++ {
		rctx, rcancel := context.WithTimeout(ctx, c.rpcTimeout)
		resp, err := cl.WaitForEffects(rctx, req, parent.ForwardedClientAddr)
		rcancel()
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Debug("acknowledgment request failed, retrying",
			"authority", id, "attempt", attempt, "err", err)

		backoff := canrand.Interval(rng, c.ackBackoffMin, c.ackBackoffMax)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
