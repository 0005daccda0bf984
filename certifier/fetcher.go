package certifier

import (
	"context"
	"errors"
	mrand "math/rand"

	"github.com/canopus-network/canopus/types"
)

// getFullEffects runs one bounded fetch pass for the complete execution
// result. Each attempt asks one committee member, picked at random, under
// the per-RPC timeout. Transient conditions are retried against new picks:
// transport failures, timeouts, validators that voted for an execution but
// retained no data, and single-validator rejections or expirations (only the
// acknowledgment quorum decides those).
//
// When the attempt budget runs out, the error of the most recent attempt is
// returned, identifying which terminal condition was hit.
//
// The returned digest is recomputed from the fetched effects rather than
// taken from the response, so a response whose contents do not match its
// claimed digest fails the orchestrator's cross-check.
func (c *Certifier) getFullEffects(
	ctx context.Context,
	req Request,
	rng *mrand.Rand,
) (types.EffectsDigest, *types.ExecutedData, error) {
	wireReq := &types.WaitForEffectsRequest{
		Epoch:             req.Epoch,
		TransactionDigest: req.TransactionDigest,
		Position:          req.Position,
		IncludeDetails:    true,
	}

	var lastErr error
	for attempt := 0; attempt < c.maxFetchAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return types.EffectsDigest{}, nil, err
		}
		target := c.pickTarget(rng)

		rctx, rcancel := context.WithTimeout(ctx, c.rpcTimeout)
		resp, err := c.clients[target].WaitForEffects(rctx, wireReq, req.ForwardedClientAddr)
		rcancel()

		if err != nil {
			if ctx.Err() != nil {
				return types.EffectsDigest{}, nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				lastErr = &ErrTimeoutGettingFullEffects{Authority: target}
			} else {
				lastErr = &ErrRPCFailure{Authority: target, Err: err}
			}
			c.logger.Debug("full effects request failed",
				"authority", target, "attempt", attempt, "err", err)
			continue
		}

		switch r := resp.(type) {
		case *types.ExecutedResponse:
			if r.Details == nil {
				c.logger.Debug("execution data not found, retrying", "authority", target)
				lastErr = &ErrExecutionDataNotFound{Authority: target}
				continue
			}
			digest := r.Details.Effects.Digest()
			if digest != r.EffectsDigest {
				c.logger.Info("fetched effects do not match their claimed digest",
					"authority", target, "claimed", r.EffectsDigest, "recomputed", digest)
			}
			return digest, r.Details, nil
		case *types.RejectedResponse:
			lastErr = &ErrRejectedAtAuthority{Authority: target, Reason: r.Reason}
		case *types.ExpiredResponse:
			lastErr = &ErrExpiredAtAuthority{Authority: target, Round: r.Round}
		}
	}
	return types.EffectsDigest{}, nil, lastErr
}

// pickTarget selects the committee member for the next fetch attempt:
// uniformly at random by default, or proportionally to stake when the
// WeightedTargetSelection option is set.
func (c *Certifier) pickTarget(rng *mrand.Rand) types.AuthorityID {
	if c.chooser != nil {
		return c.chooser.PickSource(rng).(types.AuthorityID)
	}
	vals := c.committee.Validators
	return vals[rng.Intn(len(vals))].ID
}
