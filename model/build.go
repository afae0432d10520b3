package model

import "sort"

// split is the best split found for one open leaf.
type split struct {
	gain      float64
	feature   int
	threshold float64
	cat       bool
	left      []int
	right     []int
}

// openLeaf is a tree leaf still eligible for splitting.
type openLeaf struct {
	nodeIdx int
	indices []int
	depth   int
	sumG    float64
	sumH    float64
	best    *split
}

// buildTree grows one regression tree leaf-wise: at each step the open leaf
// with the highest split gain is split, until the leaf budget, the depth cap
// or a lack of positive-gain splits stops growth.
func buildTree(X [][]float64, grads, hess []float64, rows, cols []int, m *GBDT, p Params, importance map[string]float64) tree {
	t := tree{}

	var sumG, sumH float64
	for _, i := range rows {
		sumG += grads[i]
		sumH += hess[i]
	}

	t.Nodes = append(t.Nodes, treeNode{Leaf: true, Value: leafValue(sumG, sumH, p)})
	leaves := []*openLeaf{{nodeIdx: 0, indices: rows, depth: 0, sumG: sumG, sumH: sumH}}
	numLeaves := 1

	for numLeaves < p.NumLeaves {
		var bestLeaf *openLeaf
		bestLeafIdx := -1
		for li, leaf := range leaves {
			if leaf == nil {
				continue
			}
			if leaf.best == nil {
				leaf.best = findBestSplit(X, grads, hess, leaf, cols, m, p)
			}
			if leaf.best.gain <= 0 {
				continue
			}
			if bestLeaf == nil || leaf.best.gain > bestLeaf.best.gain {
				bestLeaf = leaf
				bestLeafIdx = li
			}
		}
		if bestLeaf == nil {
			break
		}

		s := bestLeaf.best
		s.materialize(X, bestLeaf.indices)
		if importance != nil {
			importance[m.Features[s.feature]] += s.gain
		}

		var lG, lH float64
		for _, i := range s.left {
			lG += grads[i]
			lH += hess[i]
		}
		rG := bestLeaf.sumG - lG
		rH := bestLeaf.sumH - lH

		leftIdx := len(t.Nodes)
		t.Nodes = append(t.Nodes, treeNode{Leaf: true, Value: leafValue(lG, lH, p)})
		rightIdx := len(t.Nodes)
		t.Nodes = append(t.Nodes, treeNode{Leaf: true, Value: leafValue(rG, rH, p)})

		n := &t.Nodes[bestLeaf.nodeIdx]
		n.Leaf = false
		n.Value = 0
		n.Feature = s.feature
		n.Threshold = s.threshold
		n.Cat = s.cat
		n.Left = leftIdx
		n.Right = rightIdx

		leaves[bestLeafIdx] = nil
		childDepth := bestLeaf.depth + 1
		if p.MaxDepth <= 0 || childDepth < p.MaxDepth {
			leaves = append(leaves,
				&openLeaf{nodeIdx: leftIdx, indices: s.left, depth: childDepth, sumG: lG, sumH: lH},
				&openLeaf{nodeIdx: rightIdx, indices: s.right, depth: childDepth, sumG: rG, sumH: rH},
			)
		}
		numLeaves++
	}
	return t
}

// leafValue is the regularized Newton step, shrunk by the learning rate.
func leafValue(sumG, sumH float64, p Params) float64 {
	return -p.LearningRate * sumG / (sumH + p.Lambda)
}

// splitGain scores a candidate partition against keeping the leaf whole.
func splitGain(lG, lH, rG, rH, lambda float64) float64 {
	term := func(g, h float64) float64 { return g * g / (h + lambda) }
	return 0.5 * (term(lG, lH) + term(rG, rH) - term(lG+rG, lH+rH))
}

func findBestSplit(X [][]float64, grads, hess []float64, leaf *openLeaf, cols []int, m *GBDT, p Params) *split {
	best := &split{gain: 0}
	if len(leaf.indices) < 2*p.MinChildSamples {
		return best
	}
	for _, f := range cols {
		if m.isCat(m.Features[f]) {
			findCatSplit(X, grads, hess, leaf, f, p, best)
		} else {
			findNumericSplit(X, grads, hess, leaf, f, p, best)
		}
	}
	return best
}

// materialize partitions the leaf's rows by the chosen split.
func (s *split) materialize(X [][]float64, indices []int) {
	s.left = s.left[:0]
	s.right = s.right[:0]
	for _, i := range indices {
		v := X[i][s.feature]
		goLeft := v <= s.threshold
		if s.cat {
			goLeft = v == s.threshold
		}
		if goLeft {
			s.left = append(s.left, i)
		} else {
			s.right = append(s.right, i)
		}
	}
}

type observation struct {
	v, g, h float64
}

func findNumericSplit(X [][]float64, grads, hess []float64, leaf *openLeaf, f int, p Params, best *split) {
	obs := make([]observation, len(leaf.indices))
	for k, i := range leaf.indices {
		obs[k] = observation{v: X[i][f], g: grads[i], h: hess[i]}
	}
	sort.Slice(obs, func(a, b int) bool { return obs[a].v < obs[b].v })

	var lG, lH float64
	n := len(obs)
	for k := 0; k < n-1; k++ {
		lG += obs[k].g
		lH += obs[k].h
		// No split between identical values.
		if obs[k].v == obs[k+1].v {
			continue
		}
		nl := k + 1
		nr := n - nl
		if nl < p.MinChildSamples || nr < p.MinChildSamples {
			continue
		}
		gain := splitGain(lG, lH, leaf.sumG-lG, leaf.sumH-lH, p.Lambda)
		if gain > best.gain {
			best.gain = gain
			best.feature = f
			best.threshold = (obs[k].v + obs[k+1].v) / 2
			best.cat = false
		}
	}
}

// findCatSplit evaluates one-vs-rest partitions: each category code against
// everything else.
func findCatSplit(X [][]float64, grads, hess []float64, leaf *openLeaf, f int, p Params, best *split) {
	type acc struct {
		g, h float64
		n    int
	}
	byCode := make(map[float64]*acc)
	for _, i := range leaf.indices {
		code := X[i][f]
		a, ok := byCode[code]
		if !ok {
			a = &acc{}
			byCode[code] = a
		}
		a.g += grads[i]
		a.h += hess[i]
		a.n++
	}
	if len(byCode) < 2 {
		return
	}
	total := len(leaf.indices)
	for code, a := range byCode {
		if a.n < p.MinChildSamples || total-a.n < p.MinChildSamples {
			continue
		}
		gain := splitGain(a.g, a.h, leaf.sumG-a.g, leaf.sumH-a.h, p.Lambda)
		if gain > best.gain {
			best.gain = gain
			best.feature = f
			best.threshold = code
			best.cat = true
		}
	}
}
