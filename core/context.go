package core

// RecommendContext carries the user and request information that every
// pipeline stage may need. It is passed through the whole node chain.
type RecommendContext struct {
	UserID string

	// K is the number of recommendations the caller wants back.
	K int

	// DisableModel skips the ranking model; the blended retrieval score is
	// used directly. The default is model scoring whenever a model is loaded.
	DisableModel bool

	// RecordImpressions enables the best-effort impression write for returned
	// items.
	RecordImpressions bool

	// Params holds request-level parameters (query, device type, ...).
	Params map[string]any
}

func (rctx *RecommendContext) Param(key string) (any, bool) {
	if rctx == nil || rctx.Params == nil {
		return nil, false
	}
	v, ok := rctx.Params[key]
	return v, ok
}
