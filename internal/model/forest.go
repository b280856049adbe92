package model

import (
	"errors"
	"fmt"
	"math"
)

const (
	KindClassifier = "classifier"
	KindRegressor  = "regressor"
)

// Node is one decision-tree node. Leaves have Left == Right == -1.
type Node struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

func (n Node) leaf() bool { return n.Left < 0 }

// Tree is a flat pre-order node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is the serialised form shared by classifiers and regressors.
type Forest struct {
	Kind      string `json:"kind"`
	NFeatures int    `json:"n_features"`
	// Classes maps output positions to encoder codes. Empty means identity.
	Classes []int  `json:"classes,omitempty"`
	Trees   []Tree `json:"trees"`
}

// Validate checks the forest is well formed: children point forward within
// the tree, split features are in range, and leaves carry values of a
// consistent width. A valid forest always terminates.
func (f *Forest) Validate() error {
	if f.NFeatures <= 0 {
		return errors.New("n_features must be positive")
	}
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	width := 1
	if f.Kind == KindClassifier {
		width = 0
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d: no nodes", ti)
		}
		for ni, n := range t.Nodes {
			if n.leaf() {
				if n.Right >= 0 {
					return fmt.Errorf("tree %d node %d: half-open leaf", ti, ni)
				}
				if len(n.Value) == 0 {
					return fmt.Errorf("tree %d node %d: leaf without value", ti, ni)
				}
				if width == 0 {
					width = len(n.Value)
				}
				if len(n.Value) != width {
					return fmt.Errorf("tree %d node %d: value width %d, want %d", ti, ni, len(n.Value), width)
				}
				continue
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of order", ti, ni)
			}
			if n.Feature < 0 || n.Feature >= f.NFeatures {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
		}
	}
	if f.Kind == KindClassifier && len(f.Classes) > 0 && len(f.Classes) != width {
		return fmt.Errorf("classes has %d entries, leaves have %d", len(f.Classes), width)
	}
	return nil
}

func (f *Forest) checkInput(x []float64) error {
	if len(x) != f.NFeatures {
		return fmt.Errorf("got %d features, want %d", len(x), f.NFeatures)
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("feature %d is not finite", i)
		}
	}
	return nil
}

func (t Tree) leaf(x []float64) []float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.leaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Classifier predicts a category code from a feature vector.
type Classifier struct {
	forest Forest
}

// NewClassifier validates a classifier forest.
func NewClassifier(f Forest) (*Classifier, error) {
	if f.Kind != KindClassifier {
		return nil, fmt.Errorf("forest kind %q, want %q", f.Kind, KindClassifier)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{forest: f}, nil
}

// NFeatures is the length of the expected feature vector.
func (c *Classifier) NFeatures() int { return c.forest.NFeatures }

// Predict returns the encoder code of the most likely class. Ties go to the
// lowest position.
func (c *Classifier) Predict(x []float64) (int, error) {
	if err := c.forest.checkInput(x); err != nil {
		return 0, err
	}
	var proba []float64
	for _, t := range c.forest.Trees {
		v := t.leaf(x)
		if proba == nil {
			proba = make([]float64, len(v))
		}
		var total float64
		for _, n := range v {
			total += n
		}
		if total <= 0 {
			continue
		}
		for i, n := range v {
			proba[i] += n / total
		}
	}

	best := 0
	for i := range proba {
		if proba[i] > proba[best] {
			best = i
		}
	}
	if len(c.forest.Classes) > 0 {
		return c.forest.Classes[best], nil
	}
	return best, nil
}

// Regressor predicts a continuous target from a feature vector.
type Regressor struct {
	forest Forest
}

// NewRegressor validates a regressor forest.
func NewRegressor(f Forest) (*Regressor, error) {
	if f.Kind != KindRegressor {
		return nil, fmt.Errorf("forest kind %q, want %q", f.Kind, KindRegressor)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &Regressor{forest: f}, nil
}

// NFeatures is the length of the expected feature vector.
func (r *Regressor) NFeatures() int { return r.forest.NFeatures }

// Predict returns the mean leaf value across trees.
func (r *Regressor) Predict(x []float64) (float64, error) {
	if err := r.forest.checkInput(x); err != nil {
		return 0, err
	}
	var sum float64
	for _, t := range r.forest.Trees {
		sum += t.leaf(x)[0]
	}
	return sum / float64(len(r.forest.Trees)), nil
}
