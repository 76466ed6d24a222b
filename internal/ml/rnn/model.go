package rnn

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

var (
	ErrNotEnoughWindows = errors.New("rnn: not enough training windows")
	ErrShapeMismatch    = errors.New("rnn: input shape mismatch")
	ErrDiverged         = errors.New("rnn: training diverged")
	ErrInvalidModel     = errors.New("rnn: invalid model")
)

const (
	// 目标值在训练时缩放到 [0, 1] 附近。
	defaultTargetScale   = 100.0
	minimumTrainingPairs = 2
)

// Config 是网络结构与训练参数。
type Config struct {
	Hidden1      int
	Hidden2      int
	Dense        int
	Dropout      float64
	LearningRate float64
	BatchSize    int
	Epochs       int
	Patience     int
	Seed         uint64
}

// DefaultConfig 返回默认结构：32/16 循环单元、16 维全连接、dropout 0.2、
// Adam 学习率 0.005、批大小 2、最多 50 轮、早停耐心 5。
func DefaultConfig() Config {
	return Config{
		Hidden1:      32,
		Hidden2:      16,
		Dense:        16,
		Dropout:      0.2,
		LearningRate: 0.005,
		BatchSize:    2,
		Epochs:       50,
		Patience:     5,
		Seed:         42,
	}
}

// Scaler 是按列的 min-max 归一化器。
type Scaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// FitScaler 按列统计最小值与最大值。
func FitScaler(rows [][]float64) Scaler {
	if len(rows) == 0 {
		return Scaler{}
	}
	dim := len(rows[0])
	s := Scaler{Min: make([]float64, dim), Max: make([]float64, dim)}
	copy(s.Min, rows[0])
	copy(s.Max, rows[0])
	for _, row := range rows[1:] {
		for j, v := range row {
			s.Min[j] = math.Min(s.Min[j], v)
			s.Max[j] = math.Max(s.Max[j], v)
		}
	}
	return s
}

// Transform 归一化一行；取值范围为 0 的列只做平移。
func (s Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		span := s.Max[j] - s.Min[j]
		if span == 0 {
			span = 1
		}
		out[j] = (v - s.Min[j]) / span
	}
	return out
}

// Windows 用长度为 length 的滑动窗口切分序列，目标为窗口后一行的 targetCol 列。
func Windows(series [][]float64, length, targetCol int) ([][][]float64, []float64) {
	var xs [][][]float64
	var ys []float64
	for i := 0; i+length < len(series); i++ {
		xs = append(xs, series[i:i+length])
		ys = append(ys, series[i+length][targetCol])
	}
	return xs, ys
}

// Model 包含网络权重与训练时拟合的归一化器，二者一起持久化。
type Model struct {
	Window      int      `json:"window"`
	Features    int      `json:"features"`
	TargetScale float64  `json:"target_scale"`
	Scaler      Scaler   `json:"scaler"`
	Net         *Network `json:"net"`
}

// Report 描述一次训练的结果。
type Report struct {
	Epochs       int
	BestLoss     float64
	StoppedEarly bool
}

// Train 以 MSE 为损失、Adam 为优化器训练网络，按训练损失早停并恢复最优权重。
// 每轮开始前检查 ctx。
func Train(ctx context.Context, windows [][][]float64, targets []float64, cfg Config) (*Model, Report, error) {
	if len(windows) < minimumTrainingPairs || len(windows) != len(targets) {
		return nil, Report{}, ErrNotEnoughWindows
	}
	window := len(windows[0])
	features := len(windows[0][0])
	var rows [][]float64
	for _, w := range windows {
		if len(w) != window {
			return nil, Report{}, ErrShapeMismatch
		}
		for _, row := range w {
			if len(row) != features {
				return nil, Report{}, ErrShapeMismatch
			}
			rows = append(rows, row)
		}
	}

	scaler := FitScaler(rows)
	xs := make([][][]float64, len(windows))
	ys := make([]float64, len(targets))
	for i, w := range windows {
		xs[i] = make([][]float64, window)
		for t, row := range w {
			xs[i][t] = scaler.Transform(row)
		}
		ys[i] = targets[i] / defaultTargetScale
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	net := newNetwork(features, cfg, rng)
	opt := newAdam(cfg.LearningRate, net.params())

	batchSize := max(cfg.BatchSize, 1)
	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}

	report := Report{BestLoss: math.Inf(1)}
	best := net.clone()
	wait := 0
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, report, fmt.Errorf("rnn: training interrupted at epoch %d: %w", epoch, err)
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var loss float64
		for start := 0; start < len(order); start += batchSize {
			end := min(start+batchSize, len(order))
			grads := net.zeroLike()
			n := float64(end - start)
			for _, idx := range order[start:end] {
				m1 := dropoutMask(rng, cfg.Hidden1, cfg.Dropout)
				m2 := dropoutMask(rng, cfg.Hidden2, cfg.Dropout)
				tr := net.forward(xs[idx], m1, m2)
				diff := tr.out - ys[idx]
				loss += diff * diff
				net.backward(tr, 2*diff/n, grads)
			}
			opt.step(net.params(), grads.params())
		}
		loss /= float64(len(order))
		report.Epochs = epoch + 1

		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return nil, report, ErrDiverged
		}
		if loss < report.BestLoss {
			report.BestLoss = loss
			best = net.clone()
			wait = 0
			continue
		}
		wait++
		if wait >= cfg.Patience {
			report.StoppedEarly = true
			break
		}
	}

	return &Model{
		Window:      window,
		Features:    features,
		TargetScale: defaultTargetScale,
		Scaler:      scaler,
		Net:         best,
	}, report, nil
}

// Validate 检查模型结构是否完整可用。
func (m *Model) Validate() error {
	if m == nil || m.Net == nil || m.Window <= 0 || m.Features <= 0 || m.TargetScale == 0 {
		return ErrInvalidModel
	}
	if len(m.Scaler.Min) != m.Features || len(m.Scaler.Max) != m.Features {
		return ErrInvalidModel
	}
	if !m.Net.valid() || m.Net.L1.In != m.Features {
		return ErrInvalidModel
	}
	return nil
}

// Predict 对一个窗口给出下一步的目标值（原始尺度）。
func (m *Model) Predict(window [][]float64) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	if len(window) != m.Window {
		return 0, fmt.Errorf("%w: want %d steps, got %d", ErrShapeMismatch, m.Window, len(window))
	}
	seq := make([][]float64, len(window))
	for t, row := range window {
		if len(row) != m.Features {
			return 0, fmt.Errorf("%w: want %d features, got %d", ErrShapeMismatch, m.Features, len(row))
		}
		seq[t] = m.Scaler.Transform(row)
	}
	out := m.Net.forward(seq, nil, nil).out * m.TargetScale
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, ErrDiverged
	}
	return out, nil
}

type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	m, v                  [][]float64
}

func newAdam(lr float64, params [][]float64) *adam {
	a := &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-7}
	for _, p := range params {
		a.m = append(a.m, make([]float64, len(p)))
		a.v = append(a.v, make([]float64, len(p)))
	}
	return a
}

func (a *adam) step(params, grads [][]float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for k, p := range params {
		g := grads[k]
		m, v := a.m[k], a.v[k]
		for i := range p {
			m[i] = a.beta1*m[i] + (1-a.beta1)*g[i]
			v[i] = a.beta2*v[i] + (1-a.beta2)*g[i]*g[i]
			p[i] -= a.lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + a.eps)
		}
	}
}
