package certifier

import (
	"fmt"
	"strings"

	"github.com/canopus-network/canopus/types"
)

// ErrDuplicateVote is returned by StakeAggregator.Add when the authority
// already has a vote recorded in the aggregator. It indicates a bookkeeping
// bug in the caller, not Byzantine behavior by the validator, and is
// reported distinctly from "not enough votes".
type ErrDuplicateVote struct {
	Authority types.AuthorityID
}

func (e *ErrDuplicateVote) Error() string {
	return fmt.Sprintf("duplicate vote from authority %s", e.Authority)
}

// ErrUnknownAuthority is returned by StakeAggregator.Add when the voter is
// not a member of the committee.
type ErrUnknownAuthority struct {
	Authority types.AuthorityID
}

func (e *ErrUnknownAuthority) Error() string {
	return fmt.Sprintf("authority %s is not in the committee", e.Authority)
}

// ErrInvalidRequest means the certification request is malformed. This is a
// local programmer error and is never retried.
type ErrInvalidRequest struct {
	Reason string
}

func (e *ErrInvalidRequest) Error() string {
	return fmt.Sprintf("invalid certification request: %s", e.Reason)
}

// ErrTransactionRejected means validators holding at least a validity
// threshold of stake observed the transaction being rejected, so no quorum
// can certify an execution.
type ErrTransactionRejected struct {
	Weight  int64
	Reasons []string
}

func (e *ErrTransactionRejected) Error() string {
	return fmt.Sprintf("transaction rejected by validators with %d stake: %s",
		e.Weight, summarizeReasons(e.Reasons))
}

// ErrTransactionExpired means validators holding at least a validity
// threshold of stake observed the transaction's consensus position expire.
type ErrTransactionExpired struct {
	Weight int64
	Rounds []uint64
}

func (e *ErrTransactionExpired) Error() string {
	rounds := make([]string, len(e.Rounds))
	for i, r := range e.Rounds {
		rounds[i] = fmt.Sprintf("%d", r)
	}
	return fmt.Sprintf("transaction expired at validators with %d stake (rounds %s)",
		e.Weight, strings.Join(rounds, ", "))
}

// ErrTransactionRejectedOrExpired means the combined rejection and
// expiration weight reached the validity threshold within a quorum of
// responses before either did alone, so no execution quorum can still form.
type ErrTransactionRejectedOrExpired struct {
	RejectedWeight int64
	ExpiredWeight  int64
	Reasons        []string
	Rounds         []uint64
}

func (e *ErrTransactionRejectedOrExpired) Error() string {
	rounds := make([]string, len(e.Rounds))
	for i, r := range e.Rounds {
		rounds[i] = fmt.Sprintf("%d", r)
	}
	return fmt.Sprintf(
		"transaction rejected or expired (rejected stake %d, expired stake %d): %s; expired rounds %s",
		e.RejectedWeight, e.ExpiredWeight, summarizeReasons(e.Reasons), strings.Join(rounds, ", "))
}

// DigestWeight is an observed effects digest together with the stake that
// voted for it.
type DigestWeight struct {
	Digest types.EffectsDigest
	Weight int64
}

// ErrForkedExecution means no single outcome did or can reach quorum:
// validators disagree beyond the fault tolerance assumption. This signals a
// potential safety issue in the committee and must be surfaced loudly by the
// caller rather than silently retried.
type ErrForkedExecution struct {
	TotalResponsesWeight int64
	ExecutedWeight       int64
	RejectedWeight       int64
	ExpiredWeight        int64
	Digests              []DigestWeight
	Reasons              []string
}

func (e *ErrForkedExecution) Error() string {
	digests := make([]string, len(e.Digests))
	for i, dw := range e.Digests {
		digests[i] = fmt.Sprintf("%s:%d", dw.Digest, dw.Weight)
	}
	return fmt.Sprintf(
		"forked execution: no quorum possible (responses %d, executed %d, rejected %d, expired %d; digests %s; %s)",
		e.TotalResponsesWeight, e.ExecutedWeight, e.RejectedWeight, e.ExpiredWeight,
		strings.Join(digests, " "), summarizeReasons(e.Reasons))
}

// ErrExecutionDataNotFound means the full-effects fetch exhausted its
// attempt budget, most recently against a validator that voted for an
// execution but no longer retains the data.
type ErrExecutionDataNotFound struct {
	Authority types.AuthorityID
}

func (e *ErrExecutionDataNotFound) Error() string {
	return fmt.Sprintf("execution data not found at authority %s", e.Authority)
}

// ErrRejectedAtAuthority means the full-effects fetch exhausted its attempt
// budget, most recently against a validator that reported the transaction
// rejected. A single validator's rejection is not authoritative; only the
// acknowledgment quorum decides rejection.
type ErrRejectedAtAuthority struct {
	Authority types.AuthorityID
	Reason    string
}

func (e *ErrRejectedAtAuthority) Error() string {
	return fmt.Sprintf("transaction rejected at authority %s: %s", e.Authority, e.Reason)
}

// ErrExpiredAtAuthority means the full-effects fetch exhausted its attempt
// budget, most recently against a validator that reported the transaction
// expired.
type ErrExpiredAtAuthority struct {
	Authority types.AuthorityID
	Round     uint64
}

func (e *ErrExpiredAtAuthority) Error() string {
	return fmt.Sprintf("transaction expired at authority %s (round %d)", e.Authority, e.Round)
}

// ErrTimeoutGettingFullEffects means the full-effects fetch exhausted its
// attempt budget, most recently on a per-attempt timeout.
type ErrTimeoutGettingFullEffects struct {
	Authority types.AuthorityID
}

func (e *ErrTimeoutGettingFullEffects) Error() string {
	return fmt.Sprintf("timed out getting full effects from authority %s", e.Authority)
}

// ErrRPCFailure means the full-effects fetch exhausted its attempt budget,
// most recently on a transport failure.
type ErrRPCFailure struct {
	Authority types.AuthorityID
	Err       error
}

func (e *ErrRPCFailure) Error() string {
	return fmt.Sprintf("rpc failure at authority %s: %v", e.Authority, e.Err)
}

func (e *ErrRPCFailure) Unwrap() error { return e.Err }

// summarizeReasons deduplicates human-readable reasons, rendering each
// distinct reason once with an occurrence count.
func summarizeReasons(reasons []string) string {
	if len(reasons) == 0 {
		return "no reasons reported"
	}
	counts := make(map[string]int, len(reasons))
	order := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
	}
	parts := make([]string, len(order))
	for i, r := range order {
		if counts[r] == 1 {
			parts[i] = r
		} else {
			parts[i] = fmt.Sprintf("%s (x%d)", r, counts[r])
		}
	}
	return strings.Join(parts, "; ")
}
