/*
Package certifier resolves the finalized execution result of a transaction
against a Byzantine-fault-tolerant committee.

Given a transaction already sequenced by consensus, the certifier reconciles
three independent failure dimensions: partial and asynchronous responses
from up to the full committee, validators voting for conflicting results,
and a two-phase protocol in which a cheap digest-only quorum vote is
cross-checked against an expensive full-data fetch that may itself need
retrying against different validators.

The certifier does not execute transactions, does not decide consensus
order, and does not punish misbehaving validators beyond reporting a fork.
All per-call state is scoped to a single Certify invocation.
*/
package certifier
