package task

import (
	"github.com/blues/gfs/internal/config"
	"github.com/blues/gfs/internal/logger"
	"github.com/blues/gfs/internal/logic"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job 定时任务接口
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler     gocron.Scheduler
	db            *gorm.DB
	campaignLogic *logic.CampaignLogic
	payer         logic.Payer
	config        *config.Config
}

// NewManager 创建任务管理器
func NewManager(db *gorm.DB, campaignLogic *logic.CampaignLogic, payer logic.Payer, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler:     s,
		db:            db,
		campaignLogic: campaignLogic,
		payer:         payer,
		config:        cfg,
	}
}

// Start 注册全部任务并启动调度器
func Start(db *gorm.DB, campaignLogic *logic.CampaignLogic, payer logic.Payer, cfg *config.Config) *Manager {
	manager := NewManager(db, campaignLogic, payer, cfg)
	manager.RegisterJobs()
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.register(NewCampaignFinalizeJob(m.campaignLogic, m.config))
	m.register(NewRefundDeliveryJob(m.db, m.payer, m.config))
}

// register 注册单个任务，同一任务不并发执行
func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
