package certifier

import (
	"sort"

	"github.com/canopus-network/canopus/types"
)

// StakeAggregator accumulates at most one vote per authority for a single
// outcome bucket, weighted by committee stake. The vote payload S carries
// per-vote diagnostics (a rejection reason, an expiration round) and does
// not participate in the arithmetic: which bucket a vote lands in is decided
// by the caller holding one aggregator per outcome.
//
// A StakeAggregator is not safe for concurrent use. The collector folds all
// votes from a single goroutine, so no locking is needed.
type StakeAggregator[S any] struct {
	committee  *types.Committee
	votes      map[types.AuthorityID]S
	totalVotes int64
}

// NewStakeAggregator creates an empty aggregator over the given committee.
func NewStakeAggregator[S any](committee *types.Committee) *StakeAggregator[S] {
	return &StakeAggregator[S]{
		committee: committee,
		votes:     make(map[types.AuthorityID]S),
	}
}

// Add records a vote from the given authority. It returns true exactly when
// this vote moved the accumulated weight across the committee's quorum
// threshold.
//
// A second vote from the same authority returns ErrDuplicateVote and leaves
// the accumulated weight unchanged; a vote from an authority outside the
// committee returns ErrUnknownAuthority. An authority's stake is never
// counted twice.
func (a *StakeAggregator[S]) Add(id types.AuthorityID, status S) (bool, error) {
	if _, ok := a.votes[id]; ok {
		return false, &ErrDuplicateVote{Authority: id}
	}
	val, ok := a.committee.Member(id)
	if !ok {
		return false, &ErrUnknownAuthority{Authority: id}
	}
	a.votes[id] = status
	before := a.totalVotes
	a.totalVotes += val.VotingPower

	quorum := a.committee.QuorumThreshold()
	return before < quorum && a.totalVotes >= quorum, nil
}

// TotalVotes returns the accumulated weight of all recorded votes. It never
// exceeds the committee's total voting power.
func (a *StakeAggregator[S]) TotalVotes() int64 {
	return a.totalVotes
}

// ReachedQuorumThreshold reports whether the accumulated weight is at or
// above the committee's quorum threshold.
func (a *StakeAggregator[S]) ReachedQuorumThreshold() bool {
	return a.totalVotes >= a.committee.QuorumThreshold()
}

// ReachedValidityThreshold reports whether the accumulated weight is at or
// above the committee's validity threshold.
func (a *StakeAggregator[S]) ReachedValidityThreshold() bool {
	return a.totalVotes >= a.committee.ValidityThreshold()
}

// Authorities returns the voters recorded so far, in stable (sorted) order.
func (a *StakeAggregator[S]) Authorities() []types.AuthorityID {
	ids := make([]types.AuthorityID, 0, len(a.votes))
	for id := range a.votes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Statuses returns the recorded vote payloads in the same order as
// Authorities.
func (a *StakeAggregator[S]) Statuses() []S {
	ids := a.Authorities()
	statuses := make([]S, len(ids))
	for i, id := range ids {
		statuses[i] = a.votes[id]
	}
	return statuses
}
