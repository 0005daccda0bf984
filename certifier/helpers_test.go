package certifier

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canopus-network/canopus/client"
	"github.com/canopus-network/canopus/client/mock"
	"github.com/canopus-network/canopus/types"
)

const testEpoch = uint64(7)

// newTestCommittee builds a committee of n equally staked validators plus a
// scriptable mock client per member.
func newTestCommittee(t *testing.T, n int, power int64) (*types.Committee, []*mock.Client, map[types.AuthorityID]client.AuthorityClient) {
	t.Helper()
	vals := make([]*types.Validator, n)
	mocks := make([]*mock.Client, n)
	clients := make(map[types.AuthorityID]client.AuthorityClient, n)
	for i := 0; i < n; i++ {
		id := types.AuthorityID(fmt.Sprintf("val%d", i))
		vals[i] = &types.Validator{ID: id, VotingPower: power}
		mocks[i] = mock.New(id)
		clients[id] = mocks[i]
	}
	committee, err := types.NewCommittee(testEpoch, vals)
	require.NoError(t, err)
	return committee, mocks, clients
}

func testTxDigest(b byte) types.TransactionDigest {
	var d types.TransactionDigest
	d[0] = b
	return d
}

// newExecutedData builds execution data whose effects digest varies with
// gasUsed.
func newExecutedData(tx types.TransactionDigest, gasUsed uint64) *types.ExecutedData {
	return &types.ExecutedData{
		Effects: types.TransactionEffects{
			TransactionDigest: tx,
			ExecutedEpoch:     testEpoch,
			Status:            types.ExecutionStatusSuccess,
			GasUsed:           gasUsed,
		},
		Events: []types.Event{
			{Type: "transfer", Contents: []byte("amount=1")},
		},
		InputObjects: []types.ObjectSnapshot{
			{ID: "obj-in", Version: 1, Contents: []byte("before")},
		},
		OutputObjects: []types.ObjectSnapshot{
			{ID: "obj-out", Version: 2, Contents: []byte("after")},
		},
	}
}

func testRequest(tx types.TransactionDigest) Request {
	return Request{
		Epoch:             testEpoch,
		TransactionDigest: tx,
		Position:          types.ConsensusPosition{Epoch: testEpoch, Block: 5, Index: 3},
	}
}
