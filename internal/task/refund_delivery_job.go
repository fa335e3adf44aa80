package task

import (
	"time"

	"github.com/blues/gfs/internal/config"
	"github.com/blues/gfs/internal/logger"
	"github.com/blues/gfs/internal/logic"
	"github.com/blues/gfs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// RefundDeliveryJob 退款交付任务。核心账本完成退款后只落一条
// pending 记录，本任务负责把款项实际打给贡献者并回写结果。
type RefundDeliveryJob struct {
	db     *gorm.DB
	payer  logic.Payer
	config *config.Config
}

// NewRefundDeliveryJob 创建退款交付任务
func NewRefundDeliveryJob(db *gorm.DB, payer logic.Payer, cfg *config.Config) *RefundDeliveryJob {
	return &RefundDeliveryJob{
		db:     db,
		payer:  payer,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *RefundDeliveryJob) GetName() string {
	return "refund_delivery"
}

// GetSchedule 获取调度配置
func (j *RefundDeliveryJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *RefundDeliveryJob) Execute() {
	batchSize := j.config.Task.RefundBatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	// 查找待交付的退款记录
	var records []model.RefundRecordModel
	err := j.db.Where("status = ?", model.RefundStatusPending).
		Order("id ASC").
		Limit(batchSize).
		Find(&records).Error
	if err != nil {
		logger.Error("Failed to fetch pending refund records: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	delivered := 0
	for _, record := range records {
		txHash, err := j.payer.Pay(common.HexToAddress(record.Contributor), record.Amount)
		if err != nil {
			logger.Error("Failed to deliver refund record %d: %v", record.Id, err)
			j.updateStatus(record.Id, model.RefundStatusFailed, "")
			continue
		}

		j.updateStatus(record.Id, model.RefundStatusSuccess, txHash)
		logger.Info("Delivered refund record %d, amount: %d to %s", record.Id, record.Amount, record.Contributor)
		delivered++
	}

	logger.Info("Refund delivery task completed. Delivered %d of %d records", delivered, len(records))
}

// updateStatus 回写交付结果
func (j *RefundDeliveryJob) updateStatus(recordId int64, status model.RefundStatus, txHash string) {
	updates := map[string]interface{}{
		"status": string(status),
	}
	if txHash != "" {
		updates["tx_hash"] = txHash
	}

	if err := j.db.Model(&model.RefundRecordModel{}).Where("id = ?", recordId).Updates(updates).Error; err != nil {
		logger.Error("Failed to update refund record %d: %v", recordId, err)
	}
}
