package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/wellnesslog/internal/config"
	"github.com/wellnesslog/internal/db"
	"github.com/wellnesslog/internal/logging"
	"github.com/wellnesslog/internal/predictor"
	"github.com/wellnesslog/internal/service"
)

// 把 JSON 导出文件或旧版 wellness_data.json 导入数据库，已存在的日期跳过。
func main() {
	cfg := config.Load()

	var file, userID string
	flag.StringVar(&file, "file", "wellness_data.json", "JSON export or legacy data file")
	flag.StringVar(&userID, "user", cfg.DefaultUserID, "user id to import into")
	flag.Parse()

	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No %s found. Starting with empty database.\n", file)
			return
		}
		fmt.Fprintf(os.Stderr, "read %s: %v\n", file, err)
		os.Exit(1)
	}

	if err := db.Init(db.Options{Path: cfg.DatabasePath, URL: cfg.DatabaseURL}); err != nil {
		fmt.Fprintf(os.Stderr, "init db: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, "import")

	raws, err := service.ParseJSONExport(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %v\n", file, err)
		os.Exit(1)
	}

	store, err := predictor.NewFileStore(cfg.ModelDir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "model dir: %v\n", err)
		os.Exit(1)
	}
	models := predictor.New(store, predictor.DefaultOptions(), log)
	models.LoadModels()

	ctx := context.Background()
	result, err := service.NewEntryService(db.DB, models, log).Import(ctx, userID, raws)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import: %v\n", err)
		os.Exit(1)
	}
	if _, err := service.NewProfileService(db.DB).Get(ctx, userID); err != nil {
		fmt.Fprintf(os.Stderr, "ensure profile: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d entries, imported %d, skipped %d\n", len(raws), result.Imported, result.Skipped)
}
