package model

// treeNode is one node of a regression tree. Nodes are stored in a flat
// slice; Left and Right index into it. Leaves carry the (already shrunk)
// output value.
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	// Cat marks a categorical split: rows whose encoded category equals
	// Threshold go left, all others right.
	Cat   bool    `json:"c,omitempty"`
	Left  int     `json:"l"`
	Right int     `json:"r"`
	Leaf  bool    `json:"leaf,omitempty"`
	Value float64 `json:"v"`
}

type tree struct {
	Nodes []treeNode `json:"nodes"`
}

// predict walks the tree for one encoded feature vector.
func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		v := x[n.Feature]
		if n.Cat {
			if v == n.Threshold {
				i = n.Left
			} else {
				i = n.Right
			}
		} else {
			if v <= n.Threshold {
				i = n.Left
			} else {
				i = n.Right
			}
		}
	}
}
