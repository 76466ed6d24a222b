package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"gorm.io/gorm"

	"github.com/wellnesslog/internal/db"
	"github.com/wellnesslog/internal/wellness"
)

// ErrProfileInvalidInput 在周期长度或日期不合法时返回
var ErrProfileInvalidInput = errors.New("invalid profile input")

const defaultCycleLength = 28

// ProfileService 负责维护用户的周期设置与偏好
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService 构造 ProfileService
func NewProfileService(gdb *gorm.DB) *ProfileService {
	return &ProfileService{db: gdb}
}

// ProfileInput 描述更新资料时可设置的字段
// 指针字段为 nil 时保持原值；Preferences 按键合并
type ProfileInput struct {
	AverageCycleLength *int
	LastPeriodStart    *string
	Preferences        map[string]any
}

// Get 返回用户资料，不存在时创建默认资料。
func (s *ProfileService) Get(ctx context.Context, userID string) (*db.UserProfile, error) {
	var profile db.UserProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	profile = db.UserProfile{
		UserID:             userID,
		AverageCycleLength: defaultCycleLength,
		Preferences:        map[string]any{},
	}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return &profile, nil
}

// Update 更新用户资料
func (s *ProfileService) Update(ctx context.Context, userID string, input ProfileInput) (*db.UserProfile, error) {
	if input.AverageCycleLength != nil && (*input.AverageCycleLength < 1 || *input.AverageCycleLength > 90) {
		return nil, ErrProfileInvalidInput
	}
	var lastStart string
	if input.LastPeriodStart != nil {
		lastStart = strings.TrimSpace(*input.LastPeriodStart)
		if lastStart != "" {
			if _, err := wellness.ParseDate(lastStart); err != nil {
				return nil, ErrProfileInvalidInput
			}
		}
	}

	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.AverageCycleLength != nil {
		profile.AverageCycleLength = *input.AverageCycleLength
	}
	if input.LastPeriodStart != nil {
		profile.LastPeriodStart = lastStart
	}
	if input.Preferences != nil {
		prefs := profile.ClonePreferences()
		maps.Copy(prefs, input.Preferences)
		profile.Preferences = prefs
	}

	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}
