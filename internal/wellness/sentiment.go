package wellness

import (
	"bytes"
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	positiveKeywords = []string{"happy", "energetic", "good", "great", "excellent", "strong", "motivated"}
	negativeKeywords = []string{"tired", "stressed", "pain", "anxious", "sad", "exhausted", "sick"}
)

// 极性词典，取值范围 [-1, 1]。
var valenceLexicon = map[string]float64{
	"good": 0.7, "great": 0.8, "excellent": 1.0, "amazing": 0.6, "awesome": 1.0,
	"wonderful": 1.0, "fantastic": 0.4, "happy": 0.8, "glad": 0.5, "calm": 0.3,
	"relaxed": 0.4, "rested": 0.4, "refreshed": 0.5, "energetic": 0.5, "strong": 0.4,
	"motivated": 0.5, "productive": 0.5, "better": 0.5, "best": 1.0, "nice": 0.6,
	"fine": 0.4, "love": 0.5, "loved": 0.7, "enjoyed": 0.5, "fun": 0.3,
	"peaceful": 0.5, "positive": 0.2, "healthy": 0.5, "proud": 0.8, "grateful": 0.6,
	"cheerful": 0.8, "excited": 0.4, "focused": 0.3, "okay": 0.5, "ok": 0.5,
	"bad": -0.7, "terrible": -1.0, "awful": -1.0, "horrible": -1.0, "worse": -0.4,
	"worst": -1.0, "sad": -0.5, "unhappy": -0.6, "tired": -0.4, "exhausted": -0.5,
	"stressed": -0.5, "stressful": -0.5, "anxious": -0.3, "worried": -0.4, "angry": -0.5,
	"upset": -0.5, "sick": -0.7, "ill": -0.5, "pain": -0.6, "painful": -0.7,
	"sore": -0.4, "hurt": -0.5, "weak": -0.4, "lonely": -0.5, "depressed": -0.7,
	"miserable": -1.0, "frustrated": -0.6, "irritable": -0.5, "cranky": -0.5, "moody": -0.3,
	"overwhelmed": -0.6, "nauseous": -0.6, "bloated": -0.4, "drained": -0.5, "sleepy": -0.2,
	"negative": -0.3, "difficult": -0.5, "hard": -0.3, "poor": -0.4, "low": -0.2,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "nothing": true, "neither": true,
	"nor": true, "without": true, "hardly": true,
}

// 程度修饰词，作用于紧随其后的极性词。
var modifiers = map[string]float64{
	"very": 1.3, "really": 1.3, "so": 1.3, "extremely": 1.5, "incredibly": 1.5,
	"super": 1.4, "quite": 1.1, "too": 1.2, "totally": 1.3,
	"slightly": 0.5, "somewhat": 0.7, "little": 0.6, "barely": 0.4, "kinda": 0.7,
}

// SentimentAnalyzer 对备注文本做情绪分析。备注允许包含 Markdown，分析前会还原为纯文本。
type SentimentAnalyzer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewSentimentAnalyzer 创建分析器，可在多个 goroutine 间共享。
func NewSentimentAnalyzer() *SentimentAnalyzer {
	return &SentimentAnalyzer{
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   bluemonday.StrictPolicy(),
	}
}

// Analyze 返回 polarity×0.6 + (正向关键词数 − 负向关键词数)×0.1。
// 空文本返回 0；内部出现任何异常同样返回 0。
func (a *SentimentAnalyzer) Analyze(text string) (score float64) {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	defer func() {
		if r := recover(); r != nil {
			score = 0
		}
	}()

	// 关键词在原文上按子串匹配，尖括号里的词也要计入
	lower := strings.ToLower(text)

	positive := 0
	for _, word := range positiveKeywords {
		if strings.Contains(lower, word) {
			positive++
		}
	}
	negative := 0
	for _, word := range negativeKeywords {
		if strings.Contains(lower, word) {
			negative++
		}
	}

	return Polarity(a.plainText(text))*0.6 + float64(positive-negative)*0.1
}

// plainText 去掉 Markdown 标记。'<' 先转义成实体，避免 <tired> 这类文字被当作 HTML 标签丢弃。
func (a *SentimentAnalyzer) plainText(text string) string {
	escaped := strings.ReplaceAll(text, "<", "&lt;")
	var buf bytes.Buffer
	if err := a.markdown.Convert([]byte(escaped), &buf); err != nil {
		return text
	}
	stripped := a.policy.SanitizeBytes(buf.Bytes())
	return html.UnescapeString(string(stripped))
}

// Polarity 基于词典计算文本极性，结果位于 [-1, 1]。
// 否定词翻转并减弱后续极性词，程度词按倍数放大或缩小；没有命中词典时返回 0。
func Polarity(text string) float64 {
	tokens := tokenize(text)
	var sum float64
	scored := 0
	for i, token := range tokens {
		valence, ok := valenceLexicon[token]
		if !ok {
			continue
		}
		multiplier := 1.0
		negated := false
		// 只回看前两个词
		for j := i - 1; j >= 0 && j >= i-2; j-- {
			prev := tokens[j]
			if m, ok := modifiers[prev]; ok {
				multiplier *= m
				continue
			}
			if negations[prev] || strings.HasSuffix(prev, "n't") {
				negated = true
			}
		}
		valence *= multiplier
		if negated {
			valence *= -0.5
		}
		sum += Clamp(valence, -1, 1)
		scored++
	}
	if scored == 0 {
		return 0
	}
	return Clamp(sum/float64(scored), -1, 1)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}
