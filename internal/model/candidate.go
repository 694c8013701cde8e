package model

// CandidateSource identifies which pipeline stage produced a candidate.
type CandidateSource string

const (
	// SourceLedger marks candidates recalled from the historical ledger.
	SourceLedger CandidateSource = "ledger"
	// SourceEnsemble marks candidates produced by a generation role.
	SourceEnsemble CandidateSource = "ensemble"
	// SourcePreprocessor marks candidates extracted by deterministic rules.
	SourcePreprocessor CandidateSource = "preprocessor"
)

// precedence orders sources for tie-breaking: ledger beats ensemble beats
// preprocessor.
func (s CandidateSource) precedence() int {
	switch s {
	case SourceLedger:
		return 0
	case SourceEnsemble:
		return 1
	default:
		return 2
	}
}

// Beats reports whether this source wins a tie against other.
func (s CandidateSource) Beats(other CandidateSource) bool {
	return s.precedence() < other.precedence()
}

// Candidate is one proposed canonical name for a transaction. Candidates are
// ephemeral: produced and consumed within a single resolution, never stored.
type Candidate struct {
	Text   string
	Source CandidateSource
	Role   string // Ensemble role that produced it, empty for other sources
	Score  float64
}
