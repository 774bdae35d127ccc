package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/mintcart/internal/app"
	"github.com/mintcart/internal/config"
	"github.com/mintcart/internal/logger"
	"github.com/mintcart/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiGreen = "\033[32m"
	ansiCyan  = "\033[36m"
)

func main() {
	printStartupBanner()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	// 数据库后端才需要初始化数据库
	if cfg.Storage.Backend == "database" {
		db := cfg.Storage.Database
		if err := models.InitDB(db.Driver, db.DSN, models.DBPoolConfig{
			MaxOpenConns:           db.Pool.MaxOpenConns,
			MaxIdleConns:           db.Pool.MaxIdleConns,
			ConnMaxLifetimeSeconds: db.Pool.ConnMaxLifetimeSeconds,
			ConnMaxIdleTimeSeconds: db.Pool.ConnMaxIdleTimeSeconds,
		}); err != nil {
			stdLog.Fatalf("数据库初始化失败: %v", err)
		}
		if err := models.AutoMigrate(); err != nil {
			stdLog.Fatalf("数据库迁移失败: %v", err)
		}
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiCyan + "███╗   ███╗██╗███╗   ██╗████████╗ ██████╗ █████╗ ██████╗ ████████╗" + ansiReset)
	fmt.Println(ansiCyan + "████╗ ████║██║████╗  ██║╚══██╔══╝██╔════╝██╔══██╗██╔══██╗╚══██╔══╝" + ansiReset)
	fmt.Println(ansiCyan + "██╔████╔██║██║██╔██╗ ██║   ██║   ██║     ███████║██████╔╝   ██║   " + ansiReset)
	fmt.Println(ansiCyan + "██║╚██╔╝██║██║██║╚██╗██║   ██║   ██║     ██╔══██║██╔══██╗   ██║   " + ansiReset)
	fmt.Println(ansiCyan + "██║ ╚═╝ ██║██║██║ ╚████║   ██║   ╚██████╗██║  ██║██║  ██║   ██║   " + ansiReset)
	fmt.Println(ansiCyan + "╚═╝     ╚═╝╚═╝╚═╝  ╚═══╝   ╚═╝    ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   " + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "MintCart · 卡牌商城购物车服务" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}
