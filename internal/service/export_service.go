package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wellnesslog/internal/wellness"
)

// ErrNoData 在没有任何记录可导出时返回
var ErrNoData = errors.New("no data to export")

const exportSheet = "Wellness"

// 导出的固定列，症状列按名称排序追加在末尾。
var exportColumns = []string{
	"date", "breakfast", "lunch", "dinner", "snacks",
	"stress_morning", "stress_afternoon", "stress_night", "average_stress",
	"exercise_minutes", "water_intake", "sleep_hours", "sleep_quality",
	"on_period", "period_day", "cycle_phase", "notes", "additional_notes",
	"wellness_score", "sentiment_score", "predicted_energy",
}

// ExportService 把记录导出为 CSV、JSON、XLSX 与文本摘要。
type ExportService struct {
	now func() time.Time
}

// NewExportService 构造 ExportService
func NewExportService() *ExportService {
	return &ExportService{now: time.Now}
}

// FileName 返回带日期的下载文件名。
func (s *ExportService) FileName(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, s.now().Format("20060102"), ext)
}

// symptomColumns 收集所有记录中出现过的症状名。
func symptomColumns(entries []wellness.Entry) []string {
	seen := map[string]struct{}{}
	for _, e := range entries {
		for name := range e.Symptoms {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func formatInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// exportRow 返回与 exportColumns 顺序一致的单元格，缺失值为空串。
func exportRow(e wellness.Entry, symptoms []string) []string {
	row := []string{
		e.DateString(), e.Breakfast, e.Lunch, e.Dinner, e.Snacks,
		formatFloat(e.StressMorning), formatFloat(e.StressAfternoon), formatFloat(e.StressNight), formatFloat(e.AverageStress),
		formatInt(e.ExerciseMinutes), formatInt(e.WaterIntake), formatFloat(e.SleepHours), formatFloat(e.SleepQuality),
		strconv.FormatBool(e.OnPeriod), formatInt(e.PeriodDay), e.CyclePhase, e.Notes, e.AdditionalNotes,
		formatFloat(e.WellnessScore), strconv.FormatFloat(e.SentimentScore, 'f', -1, 64), formatFloat(e.PredictedEnergy),
	}
	for _, name := range symptoms {
		value, ok := e.Symptoms[name]
		if !ok {
			row = append(row, "")
			continue
		}
		row = append(row, strconv.FormatBool(value))
	}
	return row
}

func exportHeader(symptoms []string) []string {
	header := append([]string{}, exportColumns...)
	for _, name := range symptoms {
		header = append(header, "symptom_"+name)
	}
	return header
}

// CSV 导出为 CSV，症状展开为 symptom_<name> 列。
func (s *ExportService) CSV(entries []wellness.Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoData
	}
	symptoms := symptomColumns(entries)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader(symptoms)); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		if err := w.Write(exportRow(e, symptoms)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

type jsonExport struct {
	ExportDate   string `json:"export_date"`
	TotalEntries int    `json:"total_entries"`
	Data         struct {
		Entries []EntryRecord `json:"entries"`
	} `json:"data"`
}

// JSON 导出为带元数据的 JSON 文档。没有记录时 entries 为空数组。
func (s *ExportService) JSON(entries []wellness.Entry) ([]byte, error) {
	doc := jsonExport{
		ExportDate:   s.now().Format(time.RFC3339),
		TotalEntries: len(entries),
	}
	doc.Data.Entries = NewEntryRecords(entries)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return out, nil
}

// ParseJSONExport 解析 JSON 导出文档（或旧版 {"entries": [...]} 文件）中的原始记录。
func ParseJSONExport(data []byte) ([]map[string]any, error) {
	var doc struct {
		Entries []map[string]any `json:"entries"`
		Data    struct {
			Entries []map[string]any `json:"entries"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	if len(doc.Data.Entries) > 0 {
		return doc.Data.Entries, nil
	}
	return doc.Entries, nil
}

// XLSX 导出为单工作表的 Excel 文件，表头加粗并冻结。
func (s *ExportService) XLSX(entries []wellness.Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoData
	}
	symptoms := symptomColumns(entries)
	header := exportHeader(symptoms)

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, name); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("set header style: %w", err)
		}
	}

	for i, e := range entries {
		for col, value := range xlsxRow(e, symptoms) {
			if value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// xlsxRow 与 exportRow 列顺序一致，但数值保持数值类型，缺失值为 nil。
func xlsxRow(e wellness.Entry, symptoms []string) []any {
	num := func(p *float64) any {
		if p == nil {
			return nil
		}
		return *p
	}
	integer := func(p *int) any {
		if p == nil {
			return nil
		}
		return *p
	}
	row := []any{
		e.DateString(), e.Breakfast, e.Lunch, e.Dinner, e.Snacks,
		num(e.StressMorning), num(e.StressAfternoon), num(e.StressNight), num(e.AverageStress),
		integer(e.ExerciseMinutes), integer(e.WaterIntake), num(e.SleepHours), num(e.SleepQuality),
		e.OnPeriod, integer(e.PeriodDay), e.CyclePhase, e.Notes, e.AdditionalNotes,
		num(e.WellnessScore), e.SentimentScore, num(e.PredictedEnergy),
	}
	for _, name := range symptoms {
		if value, ok := e.Symptoms[name]; ok {
			row = append(row, value)
		} else {
			row = append(row, nil)
		}
	}
	return row
}

// Summary 生成纯文本摘要报告。
func (s *ExportService) Summary(entries []wellness.Entry) string {
	if len(entries) == 0 {
		return "No data available for summary report."
	}

	rule := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 60)
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("%s", rule)
	line("WELLNESS LOG - DATA SUMMARY")
	line("%s", rule)
	line("\nExport Date: %s", s.now().Format("2006-01-02 15:04:05"))
	line("Total Entries: %d", len(entries))
	line("Date Range: %s to %s", entries[0].DateString(), entries[len(entries)-1].DateString())

	line("\n%s", thin)
	line("OVERALL STATISTICS")
	line("%s", thin)

	scores := pick(entries, func(e wellness.Entry) *float64 { return e.WellnessScore })
	if len(scores) > 0 {
		line("Average Wellness Score: %.1f/100", stat.Mean(scores, nil))
		line("Highest Wellness Score: %.1f", floats.Max(scores))
		line("Lowest Wellness Score: %.1f", floats.Min(scores))
	}
	line("\nAverage Sleep Duration: %.1f hours", mean(pick(entries, func(e wellness.Entry) *float64 { return e.SleepHours })))
	line("Average Sleep Quality: %.1f/10", mean(pick(entries, func(e wellness.Entry) *float64 { return e.SleepQuality })))
	line("Average Stress Level: %.1f/10", mean(pick(entries, func(e wellness.Entry) *float64 { return e.AverageStress })))
	line("Average Exercise: %.0f minutes/day", mean(pickInt(entries, func(e wellness.Entry) *int { return e.ExerciseMinutes })))
	line("Average Water Intake: %.0f ml/day", mean(pickInt(entries, func(e wellness.Entry) *int { return e.WaterIntake })))

	periodDays := 0
	counts := map[string]int{}
	for _, e := range entries {
		if e.OnPeriod {
			periodDays++
		}
		for name, present := range e.Symptoms {
			if present {
				counts[name]++
			}
		}
	}
	line("\nTotal Period Days Tracked: %d", periodDays)
	if len(counts) > 0 {
		line("\nMost Common Period Symptoms:")
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if counts[names[i]] != counts[names[j]] {
				return counts[names[i]] > counts[names[j]]
			}
			return names[i] < names[j]
		})
		if len(names) > 5 {
			names = names[:5]
		}
		for _, name := range names {
			pct := 0.0
			if periodDays > 0 {
				pct = float64(counts[name]) / float64(periodDays) * 100
			}
			line("  - %s: %d times (%.1f%%)", titleCase(name), counts[name], pct)
		}
	}

	positive, negative, neutral := 0, 0, 0
	for _, e := range entries {
		switch {
		case e.SentimentScore > 0:
			positive++
		case e.SentimentScore < 0:
			negative++
		default:
			neutral++
		}
	}
	line("\nEmotional Wellness:")
	line("  - Positive days: %d", positive)
	line("  - Negative days: %d", negative)
	line("  - Neutral days: %d", neutral)

	if best, worst, ok := extremeDays(entries); ok {
		line("\n%s", thin)
		line("BEST DAY")
		line("%s", thin)
		writeDay(line, best, true)

		line("\n%s", thin)
		line("MOST CHALLENGING DAY")
		line("%s", thin)
		writeDay(line, worst, false)
	}

	line("\n%s", rule)
	line("END OF REPORT")
	b.WriteString(rule)
	return b.String()
}

func writeDay(line func(string, ...any), e wellness.Entry, withExercise bool) {
	line("Date: %s", e.DateString())
	line("Wellness Score: %.1f", wellness.ValueOr(e.WellnessScore, 0))
	line("Sleep: %.1fh (Quality: %s/10)", wellness.ValueOr(e.SleepHours, 0), formatFloat(e.SleepQuality))
	if withExercise {
		line("Exercise: %d minutes", wellness.ValueOr(e.ExerciseMinutes, 0))
	}
	line("Stress: %.1f/10", wellness.ValueOr(e.AverageStress, 0))
}

// extremeDays 返回评分最高与最低的记录，并列时取较早的一条。
func extremeDays(entries []wellness.Entry) (best, worst wellness.Entry, ok bool) {
	for _, e := range entries {
		if e.WellnessScore == nil {
			continue
		}
		if !ok {
			best, worst, ok = e, e, true
			continue
		}
		if *e.WellnessScore > *best.WellnessScore {
			best = e
		}
		if *e.WellnessScore < *worst.WellnessScore {
			worst = e
		}
	}
	return best, worst, ok
}

func pick(entries []wellness.Entry, get func(wellness.Entry) *float64) []float64 {
	out := make([]float64, 0, len(entries))
	for _, e := range entries {
		if p := get(e); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

func pickInt(entries []wellness.Entry, get func(wellness.Entry) *int) []float64 {
	out := make([]float64, 0, len(entries))
	for _, e := range entries {
		if p := get(e); p != nil {
			out = append(out, float64(*p))
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// titleCase 把 mood_swings 转成 Mood Swings。
func titleCase(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
