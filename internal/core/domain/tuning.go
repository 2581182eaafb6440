package domain

import "fmt"

// Default tuning values. The BM25 constants and fusion weight are not
// derived from measurement; they are exposed for calibration.
const (
	DefaultAlpha           = 0.5
	DefaultBM25K1          = 1.2
	DefaultBM25B           = 0.75
	DefaultTopK            = 6
	DefaultOverfetchFactor = 3
	DefaultMaxHistoryTurns = 6
	DefaultMaxSessions     = 64
)

// Tuning holds the retrieval parameters that may be recalibrated at
// runtime. Values are validated as a unit so a hot reload cannot leave
// the retriever with a partially applied set.
type Tuning struct {
	// Alpha weights the lexical side of hybrid fusion:
	// combined = Alpha*lexical + (1-Alpha)*vector.
	Alpha float64

	// BM25K1 controls term-frequency saturation.
	BM25K1 float64

	// BM25B controls document-length normalization.
	BM25B float64

	// TopK is the default number of results after fusion.
	TopK int

	// OverfetchFactor is how many times TopK each index is asked for
	// before fusion, so rank fusion has candidates to work with.
	OverfetchFactor int
}

// DefaultTuning returns the baseline tuning values.
func DefaultTuning() Tuning {
	return Tuning{
		Alpha:           DefaultAlpha,
		BM25K1:          DefaultBM25K1,
		BM25B:           DefaultBM25B,
		TopK:            DefaultTopK,
		OverfetchFactor: DefaultOverfetchFactor,
	}
}

// Validate checks the tuning values are usable.
func (t Tuning) Validate() error {
	if t.Alpha < 0 || t.Alpha > 1 {
		return fmt.Errorf("%w: alpha must be in [0,1], got %v", ErrInvalidInput, t.Alpha)
	}
	if t.BM25K1 <= 0 {
		return fmt.Errorf("%w: k1 must be positive, got %v", ErrInvalidInput, t.BM25K1)
	}
	if t.BM25B < 0 || t.BM25B > 1 {
		return fmt.Errorf("%w: b must be in [0,1], got %v", ErrInvalidInput, t.BM25B)
	}
	if t.TopK <= 0 {
		return fmt.Errorf("%w: top-k must be positive, got %d", ErrInvalidInput, t.TopK)
	}
	if t.OverfetchFactor < 1 {
		return fmt.Errorf("%w: overfetch factor must be at least 1, got %d", ErrInvalidInput, t.OverfetchFactor)
	}
	return nil
}
