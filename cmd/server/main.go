package main

import (
	"github.com/blues/gfs/internal/clock"
	"github.com/blues/gfs/internal/config"
	"github.com/blues/gfs/internal/database"
	"github.com/blues/gfs/internal/ethereum"
	"github.com/blues/gfs/internal/event"
	"github.com/blues/gfs/internal/logger"
	"github.com/blues/gfs/internal/logic"
	"github.com/blues/gfs/internal/poap"
	"github.com/blues/gfs/internal/router"
	"github.com/blues/gfs/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	level := logger.ParseLogLevel(cfg.Log.Level)
	var log *logger.Logger
	var err error
	if cfg.Log.Output == "file" {
		log, err = logger.NewWithFileRotation(level, cfg.Log.File)
	} else {
		log, err = logger.New(level)
	}
	if err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化链上客户端，未配置时退化为空实现
	var issuer poap.Issuer = poap.NopIssuer{}
	var payer logic.Payer = logic.NopPayer{}
	if cfg.Chain.RpcUrl != "" {
		ethClient, err := ethereum.Init(cfg.Chain)
		if err != nil {
			logger.Fatal("Failed to initialize ethereum client: %v", err)
		}

		chainIssuer, err := poap.NewChainIssuer(ethClient, db, cfg.Task.PoolSize)
		if err != nil {
			logger.Fatal("Failed to initialize poap issuer: %v", err)
		}
		defer chainIssuer.Release()

		issuer = chainIssuer
		payer = ethClient
	} else {
		logger.Warn("Chain rpc_url not configured, poap issuance and payouts are disabled")
	}

	// 初始化通知存储与业务逻辑
	eventStore := event.NewStore(db)
	campaignLogic := logic.NewCampaignLogic(db, clock.System{}, eventStore, issuer, payer)
	recordLogic := logic.NewRecordLogic(db)

	// 从数据库恢复活动
	if err := campaignLogic.Load(); err != nil {
		logger.Fatal("Failed to load campaigns: %v", err)
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(campaignLogic, recordLogic, eventStore)

	// 启动定时任务
	manager := task.Start(db, campaignLogic, payer, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
