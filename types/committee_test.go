package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitteeThresholds(t *testing.T) {
	testCases := []struct {
		powers           []int64
		expectedTotal    int64
		expectedQuorum   int64
		expectedValidity int64
	}{
		{[]int64{2500, 2500, 2500, 2500}, 10000, 6667, 3334},
		{[]int64{1, 1, 1, 1}, 4, 3, 2},
		{[]int64{1}, 1, 1, 1},
		{[]int64{3, 3, 3}, 9, 7, 4},
	}

	for _, tc := range testCases {
		vals := make([]*Validator, len(tc.powers))
		for i, p := range tc.powers {
			vals[i] = &Validator{ID: AuthorityID(rune('a' + i)), VotingPower: p}
		}
		c, err := NewCommittee(1, vals)
		require.NoError(t, err)
		assert.Equal(t, tc.expectedTotal, c.TotalVotingPower())
		assert.Equal(t, tc.expectedQuorum, c.QuorumThreshold())
		assert.Equal(t, tc.expectedValidity, c.ValidityThreshold())
	}
}

func TestCommitteeValidation(t *testing.T) {
	_, err := NewCommittee(1, nil)
	assert.Error(t, err, "empty committee")

	_, err = NewCommittee(1, []*Validator{
		{ID: "a", VotingPower: 1},
		{ID: "a", VotingPower: 2},
	})
	assert.Error(t, err, "duplicate authority")

	_, err = NewCommittee(1, []*Validator{{ID: "a", VotingPower: -1}})
	assert.Error(t, err, "negative voting power")

	_, err = NewCommittee(1, []*Validator{
		{ID: "a", VotingPower: MaxTotalVotingPower},
		{ID: "b", VotingPower: 1},
	})
	assert.Error(t, err, "total voting power overflow")
}

func TestCommitteeLookup(t *testing.T) {
	c, err := NewCommittee(3, []*Validator{
		{ID: "a", VotingPower: 10},
		{ID: "b", VotingPower: 20},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, c.Size())
	assert.EqualValues(t, 10, c.VotingPower("a"))
	assert.EqualValues(t, 20, c.VotingPower("b"))
	assert.EqualValues(t, 0, c.VotingPower("nobody"))

	val, ok := c.Member("b")
	require.True(t, ok)
	assert.EqualValues(t, 20, val.VotingPower)

	_, ok = c.Member("nobody")
	assert.False(t, ok)
}
