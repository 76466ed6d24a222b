package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/wellnesslog/internal/db"
	"github.com/wellnesslog/internal/predictor"
	"github.com/wellnesslog/internal/wellness"
)

var (
	// ErrEntryNotFound 在指定日期没有记录时返回
	ErrEntryNotFound = errors.New("entry not found")
	// ErrInvalidDate 当日期不是 2006-01-02 格式时返回
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
	// ErrMissingUser 当记录缺少用户标识时返回
	ErrMissingUser = errors.New("user id is required")
)

// Scorer 是 EntryService 依赖的评分能力，由 predictor.Predictor 实现。
type Scorer interface {
	Predict(e wellness.Entry) predictor.Insights
	MaybeTrain(ctx context.Context, history []wellness.Entry) predictor.TrainOutcome
	Status() predictor.Status
}

// EntryService 负责每日记录的读写：合并写入、评分、触发模型训练。
type EntryService struct {
	db     *gorm.DB
	scorer Scorer
	log    zerolog.Logger
	now    func() time.Time
}

// NewEntryService 构造 EntryService
func NewEntryService(gdb *gorm.DB, scorer Scorer, log zerolog.Logger) *EntryService {
	return &EntryService{
		db:     gdb,
		scorer: scorer,
		log:    log.With().Str("component", "entry_service").Logger(),
		now:    time.Now,
	}
}

// SaveResult 描述一次写入的结果。
type SaveResult struct {
	Entry    wellness.Entry
	Insights predictor.Insights
	Created  bool
	Trained  predictor.TrainOutcome
	Status   predictor.Status
}

// List 返回用户的全部记录，按日期升序。
func (s *EntryService) List(ctx context.Context, userID string) ([]wellness.Entry, error) {
	var rows []db.DailyEntry
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return toEntries(rows), nil
}

// Recent 返回最近 limit 条记录，结果仍按日期升序。
func (s *EntryService) Recent(ctx context.Context, userID string, limit int) ([]wellness.Entry, error) {
	if limit <= 0 {
		limit = 30
	}
	var rows []db.DailyEntry
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("recent entries: %w", err)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return toEntries(rows), nil
}

// Count 返回用户的记录数。
func (s *EntryService) Count(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.DailyEntry{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// GetByDate 根据日期获取记录
func (s *EntryService) GetByDate(ctx context.Context, userID, date string) (wellness.Entry, error) {
	day, err := parseDay(date)
	if err != nil {
		return wellness.Entry{}, err
	}
	row, err := findEntry(s.db.WithContext(ctx), userID, day)
	if err != nil {
		return wellness.Entry{}, err
	}
	return row.ToEntry(), nil
}

// Save 按 (user_id, date) 合并写入记录。
// 只有输入中提供的字段会覆盖已有值；合并后重新计算平均压力与全部派生评分。
// 写入成功后按训练策略触发模型训练，训练失败不影响写入结果。
func (s *EntryService) Save(ctx context.Context, input wellness.Entry) (SaveResult, error) {
	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return SaveResult{}, ErrMissingUser
	}
	if input.Date.IsZero() {
		input.Date = s.now()
	}
	input.Date = wellness.NormalizeDate(input.Date)

	result, err := s.upsert(ctx, input)
	if db.IsUniqueConflict(err) {
		// 并发写入同一天时唯一索引冲突，重试一次走更新分支
		s.log.Debug().Str("user_id", input.UserID).Str("date", input.DateString()).Msg("entry upsert conflict, retrying")
		result, err = s.upsert(ctx, input)
	}
	if err != nil {
		return SaveResult{}, err
	}

	history, err := s.List(ctx, input.UserID)
	if err != nil {
		s.log.Warn().Err(err).Msg("load history for training failed")
	} else {
		result.Trained = s.scorer.MaybeTrain(ctx, history)
	}
	result.Status = s.scorer.Status()
	return result, nil
}

func (s *EntryService) upsert(ctx context.Context, input wellness.Entry) (SaveResult, error) {
	var result SaveResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findEntry(tx, input.UserID, input.Date)
		switch {
		case errors.Is(err, ErrEntryNotFound):
			row = &db.DailyEntry{}
			result.Created = true
		case err != nil:
			return err
		}

		merged := input
		if !result.Created {
			merged = row.ToEntry()
			merged.MergeFrom(input)
		}
		merged.RecomputeAverageStress()

		insights := s.scorer.Predict(merged)
		insights.Apply(&merged)
		row.ApplyEntry(merged)

		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("save entry: %w", err)
		}
		result.Entry = row.ToEntry()
		result.Insights = insights
		return nil
	})
	if err != nil {
		return SaveResult{}, err
	}
	return result, nil
}

// Delete 删除指定日期的记录
func (s *EntryService) Delete(ctx context.Context, userID, date string) error {
	day, err := parseDay(date)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND date = ?", userID, day.Format(wellness.DateLayout)).
		Delete(&db.DailyEntry{})
	if res.Error != nil {
		return fmt.Errorf("delete entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ImportResult 汇总一次导入。
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Dates    []string `json:"dates"`
}

// Import 导入旧版 JSON 数据中的记录。已存在的日期跳过；每条新记录都会重新评分。
// 全部导入后再按训练策略触发一次训练。
func (s *EntryService) Import(ctx context.Context, userID string, raws []map[string]any) (ImportResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ImportResult{}, ErrMissingUser
	}

	result := ImportResult{Dates: []string{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, raw := range raws {
			date, ok := raw["date"].(string)
			if !ok {
				result.Skipped++
				continue
			}
			day, err := parseDay(date)
			if err != nil {
				result.Skipped++
				continue
			}
			if _, err := findEntry(tx, userID, day); err == nil {
				result.Skipped++
				continue
			} else if !errors.Is(err, ErrEntryNotFound) {
				return err
			}

			entry := wellness.ParseEntry(raw, day)
			entry.UserID = userID
			entry.Date = day
			s.scorer.Predict(entry).Apply(&entry)

			var row db.DailyEntry
			row.ApplyEntry(entry)
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("import entry %s: %w", date, err)
			}
			result.Imported++
			result.Dates = append(result.Dates, row.Date)
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	if result.Imported > 0 {
		if history, err := s.List(ctx, userID); err == nil {
			s.scorer.MaybeTrain(ctx, history)
		}
	}
	s.log.Info().Str("user_id", userID).Int("imported", result.Imported).Int("skipped", result.Skipped).Msg("entries imported")
	return result, nil
}

func findEntry(tx *gorm.DB, userID string, day time.Time) (*db.DailyEntry, error) {
	var row db.DailyEntry
	err := tx.Where("user_id = ? AND date = ?", userID, day.Format(wellness.DateLayout)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return &row, nil
}

func parseDay(value string) (time.Time, error) {
	day, err := wellness.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return day, nil
}

func toEntries(rows []db.DailyEntry) []wellness.Entry {
	entries := make([]wellness.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.ToEntry())
	}
	return entries
}
