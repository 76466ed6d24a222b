package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellnesslog/internal/wellness"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// timeline 生成 days 天的连续记录，starts 中每个偏移开始一段 5 天的经期。
func timeline(days int, starts ...int) []wellness.Entry {
	period := map[int]bool{}
	for _, s := range starts {
		for i := 0; i < 5; i++ {
			period[s+i] = true
		}
	}
	entries := make([]wellness.Entry, days)
	for i := range entries {
		entries[i] = wellness.Entry{Date: day0.AddDate(0, 0, i), OnPeriod: period[i]}
	}
	return entries
}

func TestPredictNextPeriodTwoStarts(t *testing.T) {
	entries := timeline(40, 0, 28)

	got, ok := PredictNextPeriod(entries, day0.AddDate(0, 0, 40))
	require.True(t, ok)
	assert.Equal(t, 28.0, got.AvgCycleLength)
	assert.Equal(t, VeryRegular, got.Regularity)
	assert.Equal(t, "High", got.Confidence)
	assert.Equal(t, 1, got.ConfidenceRangeDays)
	assert.Equal(t, day0.AddDate(0, 0, 56), got.PredictedDate)
	assert.Equal(t, day0.AddDate(0, 0, 28), got.LastPeriodStart)
	assert.Equal(t, 2, got.TotalCyclesTracked)
	assert.Equal(t, []int{28}, got.CycleLengths)
	assert.Equal(t, 16, got.DaysUntil)
}

func TestPredictNextPeriodInsufficientData(t *testing.T) {
	_, ok := PredictNextPeriod(nil, day0)
	assert.False(t, ok)

	_, ok = PredictNextPeriod(timeline(20, 3), day0)
	assert.False(t, ok)
}

func TestPredictNextPeriodUnsortedInput(t *testing.T) {
	entries := timeline(40, 0, 28)
	reversed := make([]wellness.Entry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}

	got, ok := PredictNextPeriod(reversed, day0)
	require.True(t, ok)
	assert.Equal(t, []int{28}, got.CycleLengths)
}

func TestPeriodStartsFirstEntryCounts(t *testing.T) {
	entries := timeline(40, 0, 30)
	starts := PeriodStarts(entries)
	require.Len(t, starts, 2)
	assert.Equal(t, day0, starts[0])
}

func TestPredictNextPeriodFiltersImplausibleCycles(t *testing.T) {
	entries := timeline(90, 0, 50, 78)

	got, ok := PredictNextPeriod(entries, day0)
	require.True(t, ok)
	assert.Equal(t, []int{28}, got.CycleLengths)
	assert.Equal(t, 3, got.TotalCyclesTracked)
	assert.Equal(t, day0.AddDate(0, 0, 78+28), got.PredictedDate)
}

func TestPredictNextPeriodUnknownRegularity(t *testing.T) {
	entries := timeline(70, 0, 60)

	got, ok := PredictNextPeriod(entries, day0)
	require.True(t, ok)
	assert.Equal(t, Unknown, got.Regularity)
	assert.Equal(t, 28.0, got.AvgCycleLength)
	assert.Equal(t, "Low", got.Confidence)
	assert.Equal(t, 5, got.ConfidenceRangeDays)
	assert.Empty(t, got.CycleLengths)
}

func TestPredictNextPeriodRoundsAverage(t *testing.T) {
	entries := timeline(70, 0, 28, 57)

	got, ok := PredictNextPeriod(entries, day0)
	require.True(t, ok)
	assert.Equal(t, 28.5, got.AvgCycleLength)
	assert.Equal(t, day0.AddDate(0, 0, 57+29), got.PredictedDate)
}

func TestRegularityBands(t *testing.T) {
	cases := []struct {
		starts []int
		want   Regularity
	}{
		{[]int{0, 26, 56}, VeryRegular},
		{[]int{0, 24, 56}, Regular},
		{[]int{0, 22, 56}, SomewhatIrregular},
	}
	for _, tc := range cases {
		got, ok := PredictNextPeriod(timeline(70, tc.starts...), day0)
		require.True(t, ok)
		assert.Equal(t, tc.want, got.Regularity, "starts %v", tc.starts)
	}
	assert.Equal(t, Irregular, classify(7.5))
}

func TestForecastSymptoms(t *testing.T) {
	var entries []wellness.Entry
	for i := 0; i < 5; i++ {
		entries = append(entries, wellness.Entry{
			Date:     day0.AddDate(0, 0, i),
			OnPeriod: true,
			Symptoms: map[string]bool{"cramping": i < 3, "nausea": false, "fatigue": i == 0},
		})
	}
	entries = append(entries, wellness.Entry{
		Date:     day0.AddDate(0, 0, 10),
		Symptoms: map[string]bool{"headache": true},
	})

	got := ForecastSymptoms(entries)
	assert.Equal(t, SymptomLikelihood{Percentage: 60.0, Category: Likely}, got["cramping"])
	assert.Equal(t, SymptomLikelihood{Percentage: 0, Category: Unlikely}, got["nausea"])
	assert.Equal(t, SymptomLikelihood{Percentage: 20, Category: Possible}, got["fatigue"])
	assert.NotContains(t, got, "headache")
}

func TestForecastSymptomsNoPeriodDays(t *testing.T) {
	got := ForecastSymptoms(timeline(10))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestForecastSymptomsRoundsPercentage(t *testing.T) {
	entries := []wellness.Entry{
		{OnPeriod: true, Symptoms: map[string]bool{"bloating": true}},
		{OnPeriod: true},
		{OnPeriod: true},
	}
	got := ForecastSymptoms(entries)
	assert.Equal(t, 33.3, got["bloating"].Percentage)
	assert.Equal(t, Possible, got["bloating"].Category)
}

func TestCurrentPhase(t *testing.T) {
	entries := timeline(10, 0)
	last := day0.AddDate(0, 0, 4)

	assert.Equal(t, PhaseMenstrual, CurrentPhase(entries, last.AddDate(0, 0, 3)))
	assert.Equal(t, PhaseFollicular, CurrentPhase(entries, last.AddDate(0, 0, 10)))
	assert.Equal(t, PhaseOvulation, CurrentPhase(entries, last.AddDate(0, 0, 15)))
	assert.Equal(t, PhaseLuteal, CurrentPhase(entries, last.AddDate(0, 0, 20)))
	assert.Equal(t, PhaseMenstrual, CurrentPhase(entries, last.AddDate(0, 0, 30)))
	assert.Equal(t, PhaseUnknown, CurrentPhase(timeline(10), day0))
}

func TestCalendar(t *testing.T) {
	prediction, ok := PredictNextPeriod(timeline(40, 0, 28), day0)
	require.True(t, ok)

	days := Calendar(prediction, day0.AddDate(0, 0, 40), 30)
	require.Len(t, days, 30)
	assert.Equal(t, "2024-02-10", days[0].Date)

	byDate := map[string]Phase{}
	for _, d := range days {
		byDate[d.Date] = d.Phase
	}
	predicted := prediction.PredictedDate
	assert.Equal(t, PhasePredictedPeriod, byDate[predicted.Format(wellness.DateLayout)])
	assert.Equal(t, PhasePredictedPeriod, byDate[predicted.AddDate(0, 0, 1).Format(wellness.DateLayout)])
	assert.Equal(t, PhaseMenstrual, byDate[predicted.AddDate(0, 0, 3).Format(wellness.DateLayout)])
	assert.Equal(t, PhaseFollicular, byDate[predicted.AddDate(0, 0, 8).Format(wellness.DateLayout)])
	assert.Equal(t, PhaseLuteal, byDate[predicted.AddDate(0, 0, -5).Format(wellness.DateLayout)])
}
