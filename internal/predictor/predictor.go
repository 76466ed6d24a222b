// Package predictor 组合情绪分析、启发式评分与两个可选的训练模型，
// 负责模型的训练、持久化与加载。
package predictor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wellnesslog/internal/ml/gbm"
	"github.com/wellnesslog/internal/ml/rnn"
	"github.com/wellnesslog/internal/wellness"
)

// ScoreSource 标识评分来源。
type ScoreSource string

const (
	SourceModel     ScoreSource = "model"
	SourceHeuristic ScoreSource = "heuristic"
)

// ScoreResult 是一次评分的结果；回退到启发式评分时 FallbackReason 说明原因。
type ScoreResult struct {
	Score          float64     `json:"score"`
	Source         ScoreSource `json:"source"`
	FallbackReason string      `json:"fallback_reason,omitempty"`
}

// Insights 是对单条记录的完整预测。
type Insights struct {
	WellnessScore   float64     `json:"wellness_score"`
	SentimentScore  float64     `json:"sentiment_score"`
	PredictedEnergy float64     `json:"predicted_energy"`
	HealthStatus    string      `json:"health_status"`
	ScoreSource     ScoreSource `json:"score_source"`
	FallbackReason  string      `json:"fallback_reason,omitempty"`
}

// Status 描述两个模型的训练状态。
type Status struct {
	ScoreModelTrained    bool `json:"score_model_trained"`
	SequenceModelTrained bool `json:"sequence_model_trained"`
}

// TrainOutcome 报告本次调用中哪些模型完成了训练。
type TrainOutcome struct {
	ScoreTrained    bool `json:"score_trained"`
	SequenceTrained bool `json:"sequence_trained"`
}

// Options 控制训练策略。
type Options struct {
	// RetrainEvery 大于 0 时，每新增 N 条记录重新训练一次；为 0 时只在首次达到门槛时训练。
	RetrainEvery int
	// TrainTimeout 限制单次训练的耗时，0 表示不限制。
	TrainTimeout time.Duration
	GBM          gbm.Config
	RNN          rnn.Config
}

// DefaultOptions 返回默认训练参数。
func DefaultOptions() Options {
	return Options{
		TrainTimeout: 2 * time.Minute,
		GBM:          gbm.DefaultConfig(),
		RNN:          rnn.DefaultConfig(),
	}
}

// trainState 记录上次训练时的记录数，用于周期性重训。
type trainState struct {
	count int
	known bool
}

// Predictor 是评分服务的入口，可在多个 goroutine 间共享。
type Predictor struct {
	log       zerolog.Logger
	store     ModelStore
	opts      Options
	sentiment *wellness.SentimentAnalyzer
	score     *ScoreModel
	sequence  *SequenceModel

	mu            sync.Mutex
	scoreState    trainState
	sequenceState trainState
}

// New 创建预测器。store 为 nil 时模型只保存在内存中。
func New(store ModelStore, opts Options, log zerolog.Logger) *Predictor {
	log = log.With().Str("component", "predictor").Logger()
	return &Predictor{
		log:       log,
		store:     store,
		opts:      opts,
		sentiment: wellness.NewSentimentAnalyzer(),
		score:     NewScoreModel(opts.GBM, log),
		sequence:  NewSequenceModel(opts.RNN, log),
	}
}

// LoadModels 在启动时加载已持久化的模型。找不到或加载失败都视为模型缺失。
func (p *Predictor) LoadModels() {
	if p.store == nil {
		return
	}
	for _, kind := range []Kind{KindScore, KindSequence} {
		if err := p.Reload(kind); err != nil {
			if errors.Is(err, ErrModelNotFound) {
				p.log.Info().Str("kind", string(kind)).Msg("no persisted model")
				continue
			}
			p.log.Warn().Err(err).Str("kind", string(kind)).Msg("load model failed")
			continue
		}
		p.log.Info().Str("kind", string(kind)).Msg("model loaded")
	}
}

// Reload 从存储重新加载指定模型。
func (p *Predictor) Reload(kind Kind) error {
	if p.store == nil {
		return ErrModelNotFound
	}
	switch kind {
	case KindScore:
		return p.score.Load(p.store)
	case KindSequence:
		return p.sequence.Load(p.store)
	default:
		return errors.New("unknown model kind: " + string(kind))
	}
}

// Sentiment 分析备注文本。
func (p *Predictor) Sentiment(text string) float64 {
	return p.sentiment.Analyze(text)
}

// Score 计算健康评分：模型可用时使用模型，否则回退到启发式评分。
// e.SentimentScore 应已填充。
func (p *Predictor) Score(e wellness.Entry) ScoreResult {
	score, err := p.score.Predict(e)
	if err == nil {
		return ScoreResult{Score: score, Source: SourceModel}
	}
	if !errors.Is(err, ErrNotTrained) {
		p.log.Warn().Err(err).Msg("score model prediction failed, using heuristic")
	}
	return ScoreResult{
		Score:          wellness.HeuristicScore(e),
		Source:         SourceHeuristic,
		FallbackReason: err.Error(),
	}
}

// Predict 依次计算情绪、健康评分、精力值与健康状态。
func (p *Predictor) Predict(e wellness.Entry) Insights {
	e.SentimentScore = p.Sentiment(e.NoteText())
	result := p.Score(e)
	return Insights{
		WellnessScore:   result.Score,
		SentimentScore:  e.SentimentScore,
		PredictedEnergy: wellness.PredictEnergy(result.Score, e),
		HealthStatus:    wellness.HealthStatus(result.Score),
		ScoreSource:     result.Source,
		FallbackReason:  result.FallbackReason,
	}
}

// Apply 把预测结果写回记录的派生字段。
func (in Insights) Apply(e *wellness.Entry) {
	e.SentimentScore = in.SentimentScore
	e.WellnessScore = wellness.Ptr(in.WellnessScore)
	e.PredictedEnergy = wellness.Ptr(in.PredictedEnergy)
}

// Status 返回模型状态。
func (p *Predictor) Status() Status {
	return Status{
		ScoreModelTrained:    p.score.Trained(),
		SequenceModelTrained: p.sequence.Trained(),
	}
}

// ForecastNext 用序列模型预测下一天的评分。
func (p *Predictor) ForecastNext(recent []wellness.Entry) Forecast {
	return p.sequence.Forecast(recent)
}

// MaybeTrain 在写入新记录后调用，按训练策略决定是否训练两个模型。
// 训练失败只记录日志。
func (p *Predictor) MaybeTrain(ctx context.Context, history []wellness.Entry) TrainOutcome {
	count := len(history)

	p.mu.Lock()
	trainScore := p.due(&p.scoreState, p.score.Trained(), count, MinScoreTrainingEntries)
	trainSequence := p.due(&p.sequenceState, p.sequence.Trained(), count, MinSequenceTrainingEntries)
	p.mu.Unlock()

	var outcome TrainOutcome
	if trainScore {
		outcome.ScoreTrained = p.fitScore(ctx, history)
	}
	if trainSequence {
		outcome.SequenceTrained = p.fitSequence(ctx, history)
	}
	return outcome
}

// Train 强制训练两个模型，返回遇到的第一个错误。
func (p *Predictor) Train(ctx context.Context, history []wellness.Entry) (TrainOutcome, error) {
	var outcome TrainOutcome
	var firstErr error

	ctx, cancel := p.trainContext(ctx)
	defer cancel()

	if err := p.score.Fit(ctx, history, p.store); err != nil {
		firstErr = err
	} else {
		outcome.ScoreTrained = true
		p.markTrained(&p.scoreState, len(history))
	}
	if err := p.sequence.Fit(ctx, history, p.store); err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		outcome.SequenceTrained = true
		p.markTrained(&p.sequenceState, len(history))
	}
	return outcome, firstErr
}

// due 判断是否需要训练：未训练且达到门槛时训练一次；
// 开启周期重训时，距上次训练新增 RetrainEvery 条记录后再训练。
// 调用方需持有 p.mu。
func (p *Predictor) due(state *trainState, trained bool, count, threshold int) bool {
	if count < threshold {
		return false
	}
	if !trained {
		return true
	}
	if !state.known {
		// 模型来自磁盘，以当前记录数作为基线
		state.count = count
		state.known = true
		return false
	}
	return p.opts.RetrainEvery > 0 && count-state.count >= p.opts.RetrainEvery
}

func (p *Predictor) markTrained(state *trainState, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state.count = count
	state.known = true
}

func (p *Predictor) trainContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.TrainTimeout > 0 {
		return context.WithTimeout(ctx, p.opts.TrainTimeout)
	}
	return context.WithCancel(ctx)
}

func (p *Predictor) fitScore(ctx context.Context, history []wellness.Entry) bool {
	ctx, cancel := p.trainContext(ctx)
	defer cancel()
	if err := p.score.Fit(ctx, history, p.store); err != nil {
		p.log.Warn().Err(err).Int("entries", len(history)).Msg("score model training failed")
		return false
	}
	p.markTrained(&p.scoreState, len(history))
	return true
}

func (p *Predictor) fitSequence(ctx context.Context, history []wellness.Entry) bool {
	ctx, cancel := p.trainContext(ctx)
	defer cancel()
	if err := p.sequence.Fit(ctx, history, p.store); err != nil {
		p.log.Warn().Err(err).Int("entries", len(history)).Msg("sequence model training failed")
		return false
	}
	p.markTrained(&p.sequenceState, len(history))
	return true
}
