package types

import (
	"fmt"
	"math"
)

// MaxTotalVotingPower - the maximum allowed total voting power.
// It needs to be sufficiently small to avoid overflow when threshold
// arithmetic adds a validator's power to an accumulated sum.
const MaxTotalVotingPower = int64(math.MaxInt64) / 8

// AuthorityID uniquely identifies a validator within a committee. In a
// deployment it is the hex encoding of the validator's public key.
type AuthorityID string

// Validator is a committee member with its stake-proportional voting power.
type Validator struct {
	ID          AuthorityID
	VotingPower int64
}

func (v *Validator) String() string {
	return fmt.Sprintf("Validator{%s VP:%d}", v.ID, v.VotingPower)
}

// Committee is the validator set of a single epoch. It is immutable once
// constructed: certification reads stake weights and thresholds from it but
// never mutates it.
type Committee struct {
	Epoch      uint64
	Validators []*Validator

	totalVotingPower int64
	membersByID      map[AuthorityID]*Validator
}

// NewCommittee constructs a committee for the given epoch. It returns an
// error on an empty set, a duplicated authority, negative voting power, or a
// total voting power above MaxTotalVotingPower.
func NewCommittee(epoch uint64, validators []*Validator) (*Committee, error) {
	if len(validators) == 0 {
		return nil, fmt.Errorf("committee must have at least one validator")
	}
	c := &Committee{
		Epoch:       epoch,
		Validators:  make([]*Validator, len(validators)),
		membersByID: make(map[AuthorityID]*Validator, len(validators)),
	}
	copy(c.Validators, validators)
	for _, val := range c.Validators {
		if val.VotingPower < 0 {
			return nil, fmt.Errorf("validator %s has negative voting power %d", val.ID, val.VotingPower)
		}
		if _, ok := c.membersByID[val.ID]; ok {
			return nil, fmt.Errorf("duplicate validator %s", val.ID)
		}
		c.membersByID[val.ID] = val
		c.totalVotingPower += val.VotingPower
		if c.totalVotingPower > MaxTotalVotingPower {
			return nil, fmt.Errorf("total voting power exceeds max %d", MaxTotalVotingPower)
		}
	}
	return c, nil
}

// Size returns the number of validators in the committee.
func (c *Committee) Size() int {
	return len(c.Validators)
}

// TotalVotingPower returns the sum of the voting powers of all validators.
func (c *Committee) TotalVotingPower() int64 {
	return c.totalVotingPower
}

// QuorumThreshold returns the smallest aggregate voting power such that any
// two sets reaching it overlap in at least one honest validator, assuming at
// most a third of the total power is faulty: strictly more than 2/3 of the
// total.
func (c *Committee) QuorumThreshold() int64 {
	return c.totalVotingPower*2/3 + 1
}

// ValidityThreshold returns the smallest aggregate voting power guaranteed
// to include at least one honest validator: strictly more than 1/3 of the
// total.
func (c *Committee) ValidityThreshold() int64 {
	return c.totalVotingPower/3 + 1
}

// Member returns the validator with the given ID, or false if it is not in
// the committee.
func (c *Committee) Member(id AuthorityID) (*Validator, bool) {
	val, ok := c.membersByID[id]
	return val, ok
}

// VotingPower returns the voting power of the given validator, or 0 if it is
// not in the committee.
func (c *Committee) VotingPower(id AuthorityID) int64 {
	if val, ok := c.membersByID[id]; ok {
		return val.VotingPower
	}
	return 0
}

func (c *Committee) String() string {
	return fmt.Sprintf("Committee{Epoch:%d Size:%d TotalVP:%d}", c.Epoch, c.Size(), c.totalVotingPower)
}
