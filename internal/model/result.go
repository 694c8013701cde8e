package model

// ResolutionResult is the outcome of resolving one raw transaction.
type ResolutionResult struct {
	RawKey        string
	CanonicalName string
	Tier          ConfidenceTier
	Source        CandidateSource
}
