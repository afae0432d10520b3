// Package config assembles pipelines from declarative configuration: node
// type names map to builders that receive the runtime dependencies.
package config

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/feature"
	"github.com/wearlane/recsys/pipeline"
	"github.com/wearlane/recsys/rank"
)

// Deps carries the runtime dependencies a node builder may need. Declarative
// config supplies parameters; Deps supplies the live objects.
type Deps struct {
	Data     *core.Dataset
	Store    core.Store
	Models   *rank.ModelRef
	Features *feature.Builder
	Log      *zap.Logger
}

// Builder constructs a node from its config map and the shared dependencies.
type Builder func(deps Deps, cfg map[string]any) (pipeline.Node, error)

var (
	mu       sync.RWMutex
	builders = make(map[string]Builder)
)

// Register adds a builder under a node type name. Later registrations of the
// same name win, which lets applications override the defaults.
func Register(nodeType string, b Builder) {
	mu.Lock()
	defer mu.Unlock()
	builders[nodeType] = b
}

// Registered lists the known node types, sorted.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NewFactory binds the registered builders to one set of dependencies,
// producing the factory the pipeline config loader consumes.
func NewFactory(deps Deps) *pipeline.NodeFactory {
	mu.RLock()
	defer mu.RUnlock()
	f := pipeline.NewNodeFactory()
	for nodeType, b := range builders {
		b := b
		f.Register(nodeType, func(cfg map[string]any) (pipeline.Node, error) {
			return b(deps, cfg)
		})
	}
	return f
}

// BuildPipeline loads a YAML pipeline definition and assembles it against
// deps.
func BuildPipeline(path string, deps Deps) (*pipeline.Pipeline, error) {
	cfg, err := pipeline.LoadFromYAML(path)
	if err != nil {
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}
	return cfg.BuildPipeline(NewFactory(deps))
}
