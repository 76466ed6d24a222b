// Package rnn 实现一个小型的两层循环神经网络回归器，用于按最近几天的记录预测下一天的评分。
package rnn

import (
	"math"
	"math/rand/v2"
)

// RecurrentLayer 是 tanh 激活的简单循环层，权重按行优先扁平存储。
type RecurrentLayer struct {
	In    int       `json:"in"`
	Units int       `json:"units"`
	Wx    []float64 `json:"wx"`
	Wh    []float64 `json:"wh"`
	B     []float64 `json:"b"`
}

// DenseLayer 是全连接层。
type DenseLayer struct {
	In  int       `json:"in"`
	Out int       `json:"out"`
	W   []float64 `json:"w"`
	B   []float64 `json:"b"`
}

// Network 结构：循环层 → dropout → 循环层 → dropout → ReLU 全连接 → 线性输出。
type Network struct {
	L1 RecurrentLayer `json:"l1"`
	L2 RecurrentLayer `json:"l2"`
	D1 DenseLayer     `json:"d1"`
	D2 DenseLayer     `json:"d2"`
}

func newRecurrent(in, units int, rng *rand.Rand) RecurrentLayer {
	return RecurrentLayer{
		In:    in,
		Units: units,
		Wx:    glorot(rng, in, units, in*units),
		Wh:    glorot(rng, units, units, units*units),
		B:     make([]float64, units),
	}
}

func newDense(in, out int, rng *rand.Rand) DenseLayer {
	return DenseLayer{
		In:  in,
		Out: out,
		W:   glorot(rng, in, out, in*out),
		B:   make([]float64, out),
	}
}

func glorot(rng *rand.Rand, fanIn, fanOut, size int) []float64 {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	w := make([]float64, size)
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
	return w
}

func newNetwork(input int, cfg Config, rng *rand.Rand) *Network {
	return &Network{
		L1: newRecurrent(input, cfg.Hidden1, rng),
		L2: newRecurrent(cfg.Hidden1, cfg.Hidden2, rng),
		D1: newDense(cfg.Hidden2, cfg.Dense, rng),
		D2: newDense(cfg.Dense, 1, rng),
	}
}

// params 按固定顺序返回全部参数切片，优化器与梯度共享同一顺序。
func (n *Network) params() [][]float64 {
	return [][]float64{
		n.L1.Wx, n.L1.Wh, n.L1.B,
		n.L2.Wx, n.L2.Wh, n.L2.B,
		n.D1.W, n.D1.B,
		n.D2.W, n.D2.B,
	}
}

func (n *Network) zeroLike() *Network {
	return &Network{
		L1: RecurrentLayer{In: n.L1.In, Units: n.L1.Units, Wx: make([]float64, len(n.L1.Wx)), Wh: make([]float64, len(n.L1.Wh)), B: make([]float64, len(n.L1.B))},
		L2: RecurrentLayer{In: n.L2.In, Units: n.L2.Units, Wx: make([]float64, len(n.L2.Wx)), Wh: make([]float64, len(n.L2.Wh)), B: make([]float64, len(n.L2.B))},
		D1: DenseLayer{In: n.D1.In, Out: n.D1.Out, W: make([]float64, len(n.D1.W)), B: make([]float64, len(n.D1.B))},
		D2: DenseLayer{In: n.D2.In, Out: n.D2.Out, W: make([]float64, len(n.D2.W)), B: make([]float64, len(n.D2.B))},
	}
}

func (n *Network) clone() *Network {
	c := n.zeroLike()
	dst := c.params()
	for i, p := range n.params() {
		copy(dst[i], p)
	}
	return c
}

// valid 检查反序列化后的形状是否自洽。
func (n *Network) valid() bool {
	r := func(l RecurrentLayer) bool {
		return l.In > 0 && l.Units > 0 && len(l.Wx) == l.In*l.Units && len(l.Wh) == l.Units*l.Units && len(l.B) == l.Units
	}
	d := func(l DenseLayer) bool {
		return l.In > 0 && l.Out > 0 && len(l.W) == l.In*l.Out && len(l.B) == l.Out
	}
	return r(n.L1) && r(n.L2) && d(n.D1) && d(n.D2) &&
		n.L2.In == n.L1.Units && n.D1.In == n.L2.Units && n.D2.In == n.D1.Out && n.D2.Out == 1
}

func (l *RecurrentLayer) step(x, hPrev []float64) []float64 {
	h := make([]float64, l.Units)
	for u := 0; u < l.Units; u++ {
		s := l.B[u]
		wx := l.Wx[u*l.In : (u+1)*l.In]
		for i, v := range x {
			s += wx[i] * v
		}
		wh := l.Wh[u*l.Units : (u+1)*l.Units]
		for j, v := range hPrev {
			s += wh[j] * v
		}
		h[u] = math.Tanh(s)
	}
	return h
}

// backstep 反向传播单个时间步，梯度累加到 g，返回对输入和上一隐状态的梯度。
func (l *RecurrentLayer) backstep(x, hPrev, h, dh []float64, g *RecurrentLayer) ([]float64, []float64) {
	dx := make([]float64, l.In)
	dhPrev := make([]float64, l.Units)
	for u := 0; u < l.Units; u++ {
		d := dh[u] * (1 - h[u]*h[u])
		if d == 0 {
			continue
		}
		g.B[u] += d
		xr := u * l.In
		for i, v := range x {
			g.Wx[xr+i] += d * v
			dx[i] += d * l.Wx[xr+i]
		}
		hr := u * l.Units
		for j, v := range hPrev {
			g.Wh[hr+j] += d * v
			dhPrev[j] += d * l.Wh[hr+j]
		}
	}
	return dx, dhPrev
}

func (l *DenseLayer) forward(x []float64) []float64 {
	out := make([]float64, l.Out)
	for o := 0; o < l.Out; o++ {
		s := l.B[o]
		w := l.W[o*l.In : (o+1)*l.In]
		for i, v := range x {
			s += w[i] * v
		}
		out[o] = s
	}
	return out
}

// trace 记录一次前向传播的中间结果，供反向传播使用。
// h1、h2 的下标 0 是初始零状态，t+1 对应第 t 步的输出。
type trace struct {
	x    [][]float64
	h1   [][]float64
	in2  [][]float64
	h2   [][]float64
	z    []float64
	preA []float64
	a    []float64
	out  float64
	m1   []float64
	m2   []float64
}

// forward 前向传播；m1、m2 为 dropout 掩码，推理时传 nil。
func (n *Network) forward(seq [][]float64, m1, m2 []float64) *trace {
	steps := len(seq)
	tr := &trace{
		x:   seq,
		h1:  make([][]float64, steps+1),
		in2: make([][]float64, steps),
		h2:  make([][]float64, steps+1),
		m1:  m1,
		m2:  m2,
	}
	tr.h1[0] = make([]float64, n.L1.Units)
	tr.h2[0] = make([]float64, n.L2.Units)

	for t := 0; t < steps; t++ {
		tr.h1[t+1] = n.L1.step(seq[t], tr.h1[t])
		tr.in2[t] = applyMask(tr.h1[t+1], m1)
		tr.h2[t+1] = n.L2.step(tr.in2[t], tr.h2[t])
	}

	tr.z = applyMask(tr.h2[steps], m2)
	tr.preA = n.D1.forward(tr.z)
	tr.a = make([]float64, len(tr.preA))
	for i, v := range tr.preA {
		if v > 0 {
			tr.a[i] = v
		}
	}
	tr.out = n.D2.forward(tr.a)[0]
	return tr
}

// backward 对单个样本反向传播，dOut 是损失对输出的梯度。
func (n *Network) backward(tr *trace, dOut float64, g *Network) {
	for i, v := range tr.a {
		g.D2.W[i] += dOut * v
	}
	g.D2.B[0] += dOut

	dz := make([]float64, n.D1.In)
	for o := 0; o < n.D1.Out; o++ {
		if tr.preA[o] <= 0 {
			continue
		}
		d := dOut * n.D2.W[o]
		g.D1.B[o] += d
		row := o * n.D1.In
		for i, v := range tr.z {
			g.D1.W[row+i] += d * v
			dz[i] += d * n.D1.W[row+i]
		}
	}

	steps := len(tr.x)
	dh2 := applyMask(dz, tr.m2)
	dIn2 := make([][]float64, steps)
	for t := steps - 1; t >= 0; t-- {
		dIn2[t], dh2 = n.L2.backstep(tr.in2[t], tr.h2[t], tr.h2[t+1], dh2, &g.L2)
	}

	dh1 := make([]float64, n.L1.Units)
	for t := steps - 1; t >= 0; t-- {
		fromAbove := applyMask(dIn2[t], tr.m1)
		for i := range dh1 {
			dh1[i] += fromAbove[i]
		}
		_, dh1 = n.L1.backstep(tr.x[t], tr.h1[t], tr.h1[t+1], dh1, &g.L1)
	}
}

func applyMask(v, mask []float64) []float64 {
	out := make([]float64, len(v))
	if mask == nil {
		copy(out, v)
		return out
	}
	for i := range v {
		out[i] = v[i] * mask[i]
	}
	return out
}

func dropoutMask(rng *rand.Rand, size int, rate float64) []float64 {
	if rate <= 0 {
		return nil
	}
	keep := 1 - rate
	mask := make([]float64, size)
	for i := range mask {
		if rng.Float64() >= rate {
			mask[i] = 1 / keep
		}
	}
	return mask
}
