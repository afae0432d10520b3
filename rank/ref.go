// Package rank applies the trained model to candidates at serving time.
package rank

import (
	"sync/atomic"

	"github.com/wearlane/recsys/model"
)

// ModelRef holds the currently deployed ranking model behind an atomic
// pointer, so Reload swaps the model without blocking in-flight requests.
// The zero value has no model loaded and Get reports that.
type ModelRef struct {
	ptr  atomic.Pointer[model.GBDT]
	path atomic.Pointer[string]
}

// NewModelRef loads the artifact at path. A load failure leaves the ref
// empty; the caller decides whether that is fatal.
func NewModelRef(path string) (*ModelRef, error) {
	r := &ModelRef{}
	r.path.Store(&path)
	m, err := model.Load(path)
	if err != nil {
		return r, err
	}
	r.ptr.Store(m)
	return r, nil
}

// Get returns the current model, or ErrModelUnavailable when none is loaded.
func (r *ModelRef) Get() (*model.GBDT, error) {
	m := r.ptr.Load()
	if m == nil {
		return nil, model.ErrModelUnavailable
	}
	return m, nil
}

// Reload re-reads the artifact and swaps it in atomically. On failure the
// previous model keeps serving.
func (r *ModelRef) Reload() error {
	pathPtr := r.path.Load()
	if pathPtr == nil {
		return model.ErrModelUnavailable
	}
	m, err := model.Load(*pathPtr)
	if err != nil {
		return err
	}
	r.ptr.Store(m)
	return nil
}

// Set replaces the model directly, for freshly trained in-process models and
// tests.
func (r *ModelRef) Set(m *model.GBDT) {
	r.ptr.Store(m)
}

// Mode reports "model" when a model is loaded, "retrieval" otherwise. This is
// the value surfaced in responses and health checks.
func (r *ModelRef) Mode() string {
	if r.ptr.Load() != nil {
		return "model"
	}
	return "retrieval"
}
