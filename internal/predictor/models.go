package predictor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wellnesslog/internal/ml/gbm"
	"github.com/wellnesslog/internal/ml/rnn"
	"github.com/wellnesslog/internal/wellness"
)

// 训练门槛。
const (
	MinScoreTrainingEntries    = 10
	MinSequenceTrainingEntries = 7
	SequenceWindow             = 3
	MinSequenceWindows         = 2
)

var (
	// ErrNotTrained 模型尚未训练或加载。
	ErrNotTrained = errors.New("model not trained")
	// ErrInsufficientData 历史记录不足以训练。
	ErrInsufficientData = errors.New("insufficient data")
)

// ScoreModel 持有梯度提升评分模型。推理持读锁，可并发；
// 训练、加载与持久化由 trainMu 串行化。
type ScoreModel struct {
	cfg gbm.Config
	log zerolog.Logger

	mu    sync.RWMutex
	model *gbm.Model

	trainMu sync.Mutex
}

// NewScoreModel 创建未训练的评分模型。
func NewScoreModel(cfg gbm.Config, log zerolog.Logger) *ScoreModel {
	return &ScoreModel{cfg: cfg, log: log.With().Str("model", string(KindScore)).Logger()}
}

// Trained 返回模型是否可用。
func (m *ScoreModel) Trained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model != nil
}

// Predict 预测评分并保留一位小数。任何内部异常都转换为 error 返回。
func (m *ScoreModel) Predict(e wellness.Entry) (score float64, err error) {
	m.mu.RLock()
	model := m.model
	m.mu.RUnlock()
	if model == nil {
		return 0, ErrNotTrained
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("score model panic: %v", r)
		}
	}()
	features := wellness.ExtractFeatures(e)
	raw, err := model.Predict(features[:])
	if err != nil {
		return 0, err
	}
	return wellness.Round1(raw), nil
}

// Fit 用历史记录训练模型，标签为启发式评分。成功后替换内存中的模型并写入 store。
// 持久化失败只记录日志，不影响已训练的内存模型。
func (m *ScoreModel) Fit(ctx context.Context, history []wellness.Entry, store ModelStore) error {
	if len(history) < MinScoreTrainingEntries {
		return fmt.Errorf("%w: need %d entries, have %d", ErrInsufficientData, MinScoreTrainingEntries, len(history))
	}

	m.trainMu.Lock()
	defer m.trainMu.Unlock()

	x := make([][]float64, len(history))
	y := make([]float64, len(history))
	for i, e := range history {
		features := wellness.ExtractFeatures(e)
		x[i] = features[:]
		y[i] = wellness.HeuristicScore(e)
	}

	model, err := gbm.Train(ctx, x, y, m.cfg)
	if err != nil {
		return fmt.Errorf("train score model: %w", err)
	}

	m.mu.Lock()
	m.model = model
	m.mu.Unlock()

	m.log.Info().Int("entries", len(history)).Int("trees", len(model.Trees)).Msg("score model trained")
	if store != nil {
		if err := store.Save(KindScore, model); err != nil {
			m.log.Warn().Err(err).Msg("persist score model failed")
		}
	}
	return nil
}

// Load 从 store 恢复模型；失败时保留现有模型。
func (m *ScoreModel) Load(store ModelStore) error {
	m.trainMu.Lock()
	defer m.trainMu.Unlock()

	var model gbm.Model
	if err := store.Load(KindScore, &model); err != nil {
		return err
	}
	if model.Features != wellness.FeatureCount || len(model.Trees) == 0 {
		return fmt.Errorf("score model: unexpected shape (features=%d trees=%d)", model.Features, len(model.Trees))
	}

	m.mu.Lock()
	m.model = &model
	m.mu.Unlock()
	return nil
}

// SequenceModel 持有循环神经网络模型及其归一化器，锁语义同 ScoreModel。
type SequenceModel struct {
	cfg rnn.Config
	log zerolog.Logger

	mu    sync.RWMutex
	model *rnn.Model

	trainMu sync.Mutex
}

// NewSequenceModel 创建未训练的序列模型。
func NewSequenceModel(cfg rnn.Config, log zerolog.Logger) *SequenceModel {
	return &SequenceModel{cfg: cfg, log: log.With().Str("model", string(KindSequence)).Logger()}
}

// Trained 返回模型是否可用。
func (m *SequenceModel) Trained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model != nil
}

func sequenceSeries(entries []wellness.Entry) [][]float64 {
	series := make([][]float64, len(entries))
	for i, e := range entries {
		f := wellness.ExtractSequenceFeatures(e)
		series[i] = f[:]
	}
	return series
}

// Fit 用连续记录构造长度为 3 的滑动窗口训练模型。
func (m *SequenceModel) Fit(ctx context.Context, history []wellness.Entry, store ModelStore) error {
	if len(history) < MinSequenceTrainingEntries {
		return fmt.Errorf("%w: need %d entries, have %d", ErrInsufficientData, MinSequenceTrainingEntries, len(history))
	}
	windows, targets := rnn.Windows(sequenceSeries(history), SequenceWindow, wellness.SequenceFeatureCount-1)
	if len(windows) < MinSequenceWindows {
		return fmt.Errorf("%w: need %d windows, have %d", ErrInsufficientData, MinSequenceWindows, len(windows))
	}

	m.trainMu.Lock()
	defer m.trainMu.Unlock()

	model, report, err := rnn.Train(ctx, windows, targets, m.cfg)
	if err != nil {
		return fmt.Errorf("train sequence model: %w", err)
	}

	m.mu.Lock()
	m.model = model
	m.mu.Unlock()

	m.log.Info().
		Int("windows", len(windows)).
		Int("epochs", report.Epochs).
		Float64("loss", report.BestLoss).
		Bool("early_stop", report.StoppedEarly).
		Msg("sequence model trained")
	if store != nil {
		if err := store.Save(KindSequence, model); err != nil {
			m.log.Warn().Err(err).Msg("persist sequence model failed")
		}
	}
	return nil
}

// Load 从 store 恢复模型与归一化器。
func (m *SequenceModel) Load(store ModelStore) error {
	m.trainMu.Lock()
	defer m.trainMu.Unlock()

	var model rnn.Model
	if err := store.Load(KindSequence, &model); err != nil {
		return err
	}
	if err := model.Validate(); err != nil {
		return fmt.Errorf("sequence model: %w", err)
	}
	if model.Window != SequenceWindow || model.Features != wellness.SequenceFeatureCount {
		return fmt.Errorf("sequence model: unexpected shape (window=%d features=%d)", model.Window, model.Features)
	}

	m.mu.Lock()
	m.model = &model
	m.mu.Unlock()
	return nil
}

// Forecast 是下一天评分预测的结果。0 分也是有效预测，是否可用只看 Available。
type Forecast struct {
	Available bool    `json:"available"`
	Score     float64 `json:"predicted_score"`
	Reason    string  `json:"reason,omitempty"`
}

// Forecast 使用最近 3 条记录预测下一天的评分，不可用时给出原因。
func (m *SequenceModel) Forecast(recent []wellness.Entry) (out Forecast) {
	if len(recent) < SequenceWindow {
		return Forecast{Reason: fmt.Sprintf("need at least %d recent entries", SequenceWindow)}
	}
	m.mu.RLock()
	model := m.model
	m.mu.RUnlock()
	if model == nil {
		return Forecast{Reason: ErrNotTrained.Error()}
	}

	defer func() {
		if r := recover(); r != nil {
			out = Forecast{Reason: fmt.Sprintf("sequence model panic: %v", r)}
		}
	}()
	score, err := model.Predict(sequenceSeries(recent[len(recent)-SequenceWindow:]))
	if err != nil {
		return Forecast{Reason: err.Error()}
	}
	return Forecast{Available: true, Score: wellness.Round1(score)}
}
