// @title MentorHub 审核服务 API
// @version 1.0
// @description 学员项目提交的审核、统计与导师工作量服务。
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"flag"
	"log"
	"mentorhub_backend/internal/app"
	"mentorhub_backend/internal/config"
	"mentorhub_backend/pkg/configwatcher"
	"mentorhub_backend/pkg/logger"
	"path/filepath"

	"go.uber.org/zap"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件所在目录（读取其中的 config.yaml）")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	noWatch := flag.Bool("no-watch", false, "关闭配置热更新")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	// review 段落支持热更新，其余配置修改需要重启
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if !*noWatch {
		go func() {
			if err := configwatcher.WatchConfig(ctx, filepath.Join(*configDir, "config.yaml"), application.ApplyConfig); err != nil {
				logger.Log.Warn("config hot reload disabled", zap.Error(err))
			}
		}()
	}

	application.Run()
}
