// Package filter holds the candidate filtering nodes.
package filter

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/pipeline"
)

// ExprNode drops candidates that fail a CEL predicate. The expression sees
// each item as:
//
//	id     string   article ID
//	score  double   current score
//	reason string   primary retrieval rule
//	rules  map      per-rule retrieval scores
//	meta   map      item metadata
//
// Example: `score > 0.1 && reason != "popular_age"`.
//
// The expression is compiled once at construction; evaluation per item is a
// program call with an activation map.
type ExprNode struct {
	expr    string
	program cel.Program
}

var _ pipeline.Node = (*ExprNode)(nil)

func NewExprNode(expr string) (*ExprNode, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("score", cel.DoubleType),
		cel.Variable("reason", cel.StringType),
		cel.Variable("rules", cel.MapType(cel.StringType, cel.DoubleType)),
		cel.Variable("meta", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("expression %q must evaluate to bool, got %s", expr, ast.OutputType())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build cel program: %w", err)
	}
	return &ExprNode{expr: expr, program: program}, nil
}

func (n *ExprNode) Name() string { return "filter.expr" }

func (n *ExprNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *ExprNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	kept := items[:0]
	for _, it := range items {
		ok, err := n.keep(it)
		if err != nil {
			return nil, fmt.Errorf("evaluate %q on item %s: %w", n.expr, it.ID, err)
		}
		if ok {
			kept = append(kept, it)
		}
	}
	return kept, nil
}

func (n *ExprNode) keep(it *core.Item) (bool, error) {
	out, _, err := n.program.Eval(map[string]any{
		"id":     it.ID,
		"score":  it.Score,
		"reason": it.Reason,
		"rules":  it.RuleScores,
		"meta":   it.Meta,
	})
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression returned non-bool %T", out.Value())
	}
	return b, nil
}
