// 修复历史审核数据脚本
//
// 早期版本在审核时只更新 updated_at，没有写入 reviewed_at，
// 导致导师工作量统计中缺少这些记录。此脚本以 updated_at 补齐缺失的 reviewed_at。
// 可重复执行，已补齐的记录不会再次修改。
//
// 用法: go run scripts/repair_review_state.go [-config configs]

package main

import (
	"context"
	"flag"
	"log"
	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/repository"
	"mentorhub_backend/pkg/database"
	"mentorhub_backend/pkg/logger"
	"time"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件所在目录")
	flag.Parse()

	// 与服务使用同一套加载逻辑，环境变量覆盖同样生效
	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	repo := repository.NewSubmissionRepository(db, time.Minute)

	log.Println("开始补齐缺失的 reviewed_at ...")
	n, err := repo.BackfillReviewedAt(context.Background())
	if err != nil {
		log.Fatalf("修复失败: %v", err)
	}
	log.Printf("完成！共修复 %d 条记录", n)
}
