// @title Interview Prep 后端 API
// @version 1.0
// @description 模拟面试练习服务：prompt 配额、订阅、自适应难度。

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"log"

	"interview_prep_backend/internal/app"
	"interview_prep_backend/internal/config"
	"interview_prep_backend/pkg/logger"

	"github.com/alecthomas/kong"
)

var CLI struct {
	ConfigDir   string           `name:"config-dir" default:"configs" type:"existingdir" help:"配置文件 config.yaml 所在目录"`
	Migrate     bool             `help:"启动时强制执行数据库迁移（即使是 release 模式）"`
	MigrateOnly bool             `name:"migrate-only" help:"只执行数据库迁移，完成后退出"`
	Version     kong.VersionFlag `help:"显示版本"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("interview-prep"),
		kong.Description("Interview practice backend: prompt quota, subscriptions and adaptive difficulty"),
		kong.UsageOnError(),
		kong.Vars{"version": "v1.0.0"},
	)

	cfg, err := config.LoadConfig(CLI.ConfigDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = CLI.Migrate || CLI.MigrateOnly
	cfg.MigrateOnly = CLI.MigrateOnly

	application, err := app.NewApp(cfg, CLI.ConfigDir)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if CLI.MigrateOnly {
		logger.Log.Info("数据库迁移完成，退出程序")
		return
	}

	application.Run()
}
