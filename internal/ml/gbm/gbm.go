// Package gbm 实现平方误差目标的梯度提升回归树。
package gbm

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyDataset 训练集为空。
	ErrEmptyDataset = errors.New("gbm: empty dataset")
	// ErrDimensionMismatch 特征维度与模型不一致。
	ErrDimensionMismatch = errors.New("gbm: feature dimension mismatch")
)

// Config 是训练超参数。
type Config struct {
	Estimators     int
	MaxDepth       int
	LearningRate   float64
	MinSamplesLeaf int
}

// DefaultConfig 返回 100 棵树、深度 5、学习率 0.1 的配置。
func DefaultConfig() Config {
	return Config{
		Estimators:     100,
		MaxDepth:       5,
		LearningRate:   0.1,
		MinSamplesLeaf: 1,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Estimators <= 0 {
		c.Estimators = def.Estimators
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = def.MaxDepth
	}
	if c.LearningRate <= 0 {
		c.LearningRate = def.LearningRate
	}
	if c.MinSamplesLeaf <= 0 {
		c.MinSamplesLeaf = def.MinSamplesLeaf
	}
	return c
}

// Node 是扁平存储的树节点；Feature 为 -1 时表示叶子。
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// Tree 是一棵回归树，根节点位于下标 0。
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) predict(x []float64) float64 {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}

// Model 是训练完成的集成模型，可直接序列化为 JSON。
type Model struct {
	Features     int     `json:"features"`
	Base         float64 `json:"base"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`
}

// Train 以均值为初始预测，逐轮拟合残差。每轮开始前检查 ctx。
func Train(ctx context.Context, x [][]float64, y []float64, cfg Config) (*Model, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, ErrEmptyDataset
	}
	dim := len(x[0])
	for _, row := range x {
		if len(row) != dim {
			return nil, ErrDimensionMismatch
		}
	}
	cfg = cfg.normalized()

	model := &Model{
		Features:     dim,
		Base:         stat.Mean(y, nil),
		LearningRate: cfg.LearningRate,
		Trees:        make([]Tree, 0, cfg.Estimators),
	}

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = model.Base
	}
	residual := make([]float64, len(y))
	indices := make([]int, len(y))

	for round := 0; round < cfg.Estimators; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("gbm: training interrupted at round %d: %w", round, err)
		}
		floats.SubTo(residual, y, pred)
		for i := range indices {
			indices[i] = i
		}
		b := builder{x: x, r: residual, cfg: cfg}
		b.build(indices, 0)
		tree := Tree{Nodes: b.nodes}
		for i, row := range x {
			pred[i] += cfg.LearningRate * tree.predict(row)
		}
		model.Trees = append(model.Trees, tree)
	}
	return model, nil
}

// Predict 对单个样本给出预测。
func (m *Model) Predict(x []float64) (float64, error) {
	if m == nil {
		return 0, errors.New("gbm: nil model")
	}
	if len(x) != m.Features {
		return 0, fmt.Errorf("%w: want %d, got %d", ErrDimensionMismatch, m.Features, len(x))
	}
	out := m.Base
	for _, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return 0, errors.New("gbm: empty tree")
		}
		out += m.LearningRate * tree.predict(x)
	}
	return out, nil
}

type builder struct {
	x     [][]float64
	r     []float64
	cfg   Config
	nodes []Node
}

// build 递归生成节点并返回其下标。
func (b *builder) build(indices []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: b.mean(indices)})

	if depth >= b.cfg.MaxDepth || len(indices) < 2*b.cfg.MinSamplesLeaf {
		return id
	}
	feature, threshold, ok := b.bestSplit(indices)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range indices {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return id
}

func (b *builder) mean(indices []int) float64 {
	var sum float64
	for _, i := range indices {
		sum += b.r[i]
	}
	return sum / float64(len(indices))
}

// bestSplit 在所有特征上寻找使平方误差下降最多的切分点，阈值取相邻取值的中点。
func (b *builder) bestSplit(indices []int) (int, float64, bool) {
	n := len(indices)
	var total float64
	for _, i := range indices {
		total += b.r[i]
	}
	parent := total * total / float64(n)

	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0
	sorted := slices.Clone(indices)
	minLeaf := b.cfg.MinSamplesLeaf

	for f := 0; f < len(b.x[indices[0]]); f++ {
		slices.SortStableFunc(sorted, func(a, c int) int {
			switch {
			case b.x[a][f] < b.x[c][f]:
				return -1
			case b.x[a][f] > b.x[c][f]:
				return 1
			default:
				return 0
			}
		})
		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += b.r[sorted[k]]
			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			rightSum := total - leftSum
			gain := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr) - parent
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (lo + hi) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}
