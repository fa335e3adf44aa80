package task

import (
	"time"

	"github.com/blues/gfs/internal/config"
	"github.com/blues/gfs/internal/logger"
	"github.com/blues/gfs/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// CampaignFinalizeJob 到期结算任务。定期扫描过期但尚未结算的活动，
// 替创建者触发结算，避免活动停在过期的进行中状态。
type CampaignFinalizeJob struct {
	campaignLogic *logic.CampaignLogic
	config        *config.Config
}

// NewCampaignFinalizeJob 创建到期结算任务
func NewCampaignFinalizeJob(campaignLogic *logic.CampaignLogic, cfg *config.Config) *CampaignFinalizeJob {
	return &CampaignFinalizeJob{
		campaignLogic: campaignLogic,
		config:        cfg,
	}
}

// GetName 获取任务名称
func (j *CampaignFinalizeJob) GetName() string {
	return "campaign_finalizer"
}

// GetSchedule 获取调度配置
func (j *CampaignFinalizeJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignFinalizeJob) Execute() {
	finalized := j.campaignLogic.FinalizeExpired()
	if finalized > 0 {
		logger.Info("Campaign finalize task completed. Finalized %d campaigns", finalized)
	}
}
