package certifier

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/canopus-network/canopus/types"
)

func equalStakeCommittee(t *testing.T, n int, power int64) *types.Committee {
	t.Helper()
	vals := make([]*types.Validator, n)
	for i := range vals {
		vals[i] = &types.Validator{
			ID:          types.AuthorityID(fmt.Sprintf("val%d", i)),
			VotingPower: power,
		}
	}
	c, err := types.NewCommittee(1, vals)
	require.NoError(t, err)
	return c
}

func TestStakeAggregatorQuorumCrossing(t *testing.T) {
	committee := equalStakeCommittee(t, 4, 2500)
	agg := NewStakeAggregator[struct{}](committee)

	crossed, err := agg.Add("val0", struct{}{})
	require.NoError(t, err)
	assert.False(t, crossed)

	crossed, err = agg.Add("val1", struct{}{})
	require.NoError(t, err)
	assert.False(t, crossed)
	assert.False(t, agg.ReachedQuorumThreshold())

	// 7500 >= 6667: this vote crosses the quorum threshold.
	crossed, err = agg.Add("val2", struct{}{})
	require.NoError(t, err)
	assert.True(t, crossed)
	assert.True(t, agg.ReachedQuorumThreshold())

	// Already above quorum, so no further crossing is reported.
	crossed, err = agg.Add("val3", struct{}{})
	require.NoError(t, err)
	assert.False(t, crossed)
	assert.EqualValues(t, 10000, agg.TotalVotes())
}

func TestStakeAggregatorNoDoubleCounting(t *testing.T) {
	committee := equalStakeCommittee(t, 4, 2500)
	agg := NewStakeAggregator[string](committee)

	_, err := agg.Add("val0", "first")
	require.NoError(t, err)
	assert.EqualValues(t, 2500, agg.TotalVotes())

	crossed, err := agg.Add("val0", "second")
	assert.False(t, crossed)

	var dupErr *ErrDuplicateVote
	require.ErrorAs(t, err, &dupErr)
	assert.EqualValues(t, "val0", dupErr.Authority)
	assert.EqualValues(t, 2500, agg.TotalVotes())
	assert.Equal(t, []string{"first"}, agg.Statuses())
}

func TestStakeAggregatorUnknownAuthority(t *testing.T) {
	committee := equalStakeCommittee(t, 2, 10)
	agg := NewStakeAggregator[struct{}](committee)

	_, err := agg.Add("stranger", struct{}{})
	var unknownErr *ErrUnknownAuthority
	require.ErrorAs(t, err, &unknownErr)
	assert.EqualValues(t, 0, agg.TotalVotes())
}

func TestStakeAggregatorStatuses(t *testing.T) {
	committee := equalStakeCommittee(t, 3, 5)
	agg := NewStakeAggregator[uint64](committee)

	_, err := agg.Add("val2", 30)
	require.NoError(t, err)
	_, err = agg.Add("val0", 10)
	require.NoError(t, err)

	assert.Equal(t, []types.AuthorityID{"val0", "val2"}, agg.Authorities())
	assert.Equal(t, []uint64{10, 30}, agg.Statuses())
}

// For any vote sequence: a voter's stake is counted at most once, duplicates
// always error without changing the total, and the quorum threshold is
// crossed on at most one Add.
func TestStakeAggregatorProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 15).Draw(t, "n").(int)
		vals := make([]*types.Validator, n)
		var total int64
		for i := range vals {
			power := rapid.Int64Range(0, 1000).Draw(t, fmt.Sprintf("power%d", i)).(int64)
			vals[i] = &types.Validator{
				ID:          types.AuthorityID(fmt.Sprintf("val%d", i)),
				VotingPower: power,
			}
			total += power
		}
		committee, err := types.NewCommittee(1, vals)
		if err != nil {
			t.Fatalf("building committee: %v", err)
		}

		agg := NewStakeAggregator[int](committee)
		voters := rapid.SliceOf(rapid.IntRange(0, n-1)).Draw(t, "voters").([]int)

		seen := make(map[int]bool)
		var want int64
		crossings := 0
		for _, v := range voters {
			id := vals[v].ID
			crossed, err := agg.Add(id, v)
			if seen[v] {
				var dupErr *ErrDuplicateVote
				if !errors.As(err, &dupErr) {
					t.Fatalf("expected duplicate vote error, got %v", err)
				}
				if crossed {
					t.Fatalf("duplicate vote reported a quorum crossing")
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				seen[v] = true
				want += vals[v].VotingPower
				if crossed {
					crossings++
				}
			}
			if agg.TotalVotes() != want {
				t.Fatalf("total votes %d, want %d", agg.TotalVotes(), want)
			}
			if agg.TotalVotes() > committee.TotalVotingPower() {
				t.Fatalf("total votes exceed committee total")
			}
		}
		if crossings > 1 {
			t.Fatalf("quorum crossed %d times", crossings)
		}
		if agg.ReachedQuorumThreshold() != (want >= committee.QuorumThreshold()) {
			t.Fatalf("quorum threshold mismatch")
		}
	})
}
