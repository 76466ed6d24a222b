package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Options 描述数据库连接方式。URL 非空时使用 PostgreSQL，否则使用 SQLite 文件。
type Options struct {
	Path   string
	URL    string
	Silent bool
}

// Init 初始化数据库连接并执行自动迁移。
// Path 为空时将回退到默认值 wellness.db。
func Init(opts Options) error {
	gdb, err := Open(opts)
	if err != nil {
		return err
	}
	DB = gdb
	return nil
}

// Open 打开连接并迁移，不修改全局实例。
func Open(opts Options) (*gorm.DB, error) {
	// 统一把驱动错误翻译为 gorm.ErrDuplicatedKey 等哨兵错误
	cfg := &gorm.Config{TranslateError: true}
	if opts.Silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	var dialector gorm.Dialector
	if url := strings.TrimSpace(opts.URL); url != "" {
		dialector = postgres.Open(url)
	} else {
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			path = "wellness.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(path)
	}

	gdb, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

// IsUniqueConflict 判断错误是否来自唯一索引冲突。
// 未开启 TranslateError 的连接仍按驱动报错文本识别。
func IsUniqueConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

// Migrate 自动迁移模式，为核心模型创建表
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&DailyEntry{},
		&UserProfile{},
	)
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
