package types

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// DigestSize is the size of transaction and effects digests in bytes.
const DigestSize = sha256.Size

// TransactionDigest uniquely identifies a transaction.
type TransactionDigest [DigestSize]byte

func (d TransactionDigest) Bytes() []byte { return d[:] }

func (d TransactionDigest) IsZero() bool { return d == TransactionDigest{} }

func (d TransactionDigest) String() string { return fmt.Sprintf("%X", d[:]) }

// EffectsDigest is a cryptographic hash uniquely identifying a transaction's
// execution result.
type EffectsDigest [DigestSize]byte

func (d EffectsDigest) Bytes() []byte { return d[:] }

func (d EffectsDigest) IsZero() bool { return d == EffectsDigest{} }

func (d EffectsDigest) String() string { return fmt.Sprintf("%X", d[:]) }

// ExecutionStatus is the outcome of executing a transaction. A failed
// execution still produces effects; failure here is distinct from the
// transaction being rejected before execution.
type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailure ExecutionStatus = "failure"
)

// TransactionEffects describes the result of executing a transaction in a
// given epoch.
type TransactionEffects struct {
	TransactionDigest TransactionDigest
	ExecutedEpoch     uint64
	Status            ExecutionStatus
	GasUsed           uint64
}

// Digest recomputes the effects digest from the effects contents. Any party
// holding the full effects can recompute it and compare against a digest
// certified elsewhere.
func (fx *TransactionEffects) Digest() EffectsDigest {
	h := sha256.New()
	h.Write(fx.TransactionDigest[:])
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], fx.ExecutedEpoch)
	h.Write(buf[:])
	h.Write([]byte(fx.Status))
	binary.BigEndian.PutUint64(buf[:], fx.GasUsed)
	h.Write(buf[:])

	var d EffectsDigest
	copy(d[:], h.Sum(nil))
	return d
}

// Event is an event emitted during execution.
type Event struct {
	Type     string
	Contents []byte
}

// ObjectSnapshot is the state of an object touched by the transaction,
// either as read (input) or as written (output).
type ObjectSnapshot struct {
	ID       string
	Version  uint64
	Contents []byte
}

// ExecutedData is the complete execution result held by a single validator:
// the effects plus any emitted events and touched-object snapshots.
type ExecutedData struct {
	Effects       TransactionEffects
	Events        []Event
	InputObjects  []ObjectSnapshot
	OutputObjects []ObjectSnapshot
}

// EffectsFinalityInfo proves how the effects were finalized. The only form
// produced by this package is quorum certification within an epoch.
type EffectsFinalityInfo struct {
	QuorumExecuted bool
	Epoch          uint64
}

// NewQuorumExecuted returns the finality marker for effects certified by a
// quorum of the given epoch's committee.
func NewQuorumExecuted(epoch uint64) EffectsFinalityInfo {
	return EffectsFinalityInfo{QuorumExecuted: true, Epoch: epoch}
}

// FinalizedEffects pairs execution effects with their finality proof.
type FinalizedEffects struct {
	Effects      TransactionEffects
	FinalityInfo EffectsFinalityInfo
}

// QuorumTransactionResponse is the authoritative result of a certified
// transaction. It is created exactly once per successful certification and
// is immutable thereafter.
type QuorumTransactionResponse struct {
	Effects FinalizedEffects
	Events  []Event
	// Touched-object snapshots; nil when the responding validator returned
	// none.
	InputObjects  []ObjectSnapshot
	OutputObjects []ObjectSnapshot
}
