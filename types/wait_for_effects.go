package types

import "fmt"

// ConsensusPosition is the validator-agreed ordering slot of a transaction
// prior to execution.
type ConsensusPosition struct {
	Epoch uint64
	Block uint64
	Index uint64
}

func (p ConsensusPosition) String() string {
	return fmt.Sprintf("%d/%d/%d", p.Epoch, p.Block, p.Index)
}

// WaitForEffectsRequest asks a validator for its view of a transaction's
// execution status. With IncludeDetails unset only the effects digest is
// requested; with it set the full ExecutedData is requested as well.
type WaitForEffectsRequest struct {
	Epoch             uint64
	TransactionDigest TransactionDigest
	Position          ConsensusPosition
	IncludeDetails    bool
}

// WaitForEffectsResponse is a validator's answer to a WaitForEffectsRequest.
// Exactly one of the three variants is returned per request:
// ExecutedResponse, RejectedResponse or ExpiredResponse.
type WaitForEffectsResponse interface {
	isWaitForEffectsResponse()
}

// ExecutedResponse reports that the validator executed the transaction with
// the given effects digest. Details is populated only when the request set
// IncludeDetails and the validator has retained the execution data.
type ExecutedResponse struct {
	EffectsDigest EffectsDigest
	Details       *ExecutedData
}

// RejectedResponse reports that the validator observed the transaction being
// rejected, with a human-readable reason.
type RejectedResponse struct {
	Reason string
}

// ExpiredResponse reports that the transaction's consensus position expired
// at the given round without being executed.
type ExpiredResponse struct {
	Round uint64
}

func (*ExecutedResponse) isWaitForEffectsResponse() {}
func (*RejectedResponse) isWaitForEffectsResponse() {}
func (*ExpiredResponse) isWaitForEffectsResponse()  {}
