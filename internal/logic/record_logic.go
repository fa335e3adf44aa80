package logic

import (
	"errors"
	"fmt"

	"github.com/blues/gfs/internal/model"
	"gorm.io/gorm"
)

// RecordLogic 查询类业务逻辑，直接读数据库快照与各类记录表
type RecordLogic struct {
	db *gorm.DB
}

// NewRecordLogic 创建查询业务逻辑
func NewRecordLogic(db *gorm.DB) *RecordLogic {
	return &RecordLogic{db: db}
}

// GetCampaigns 获取活动列表
func (r *RecordLogic) GetCampaigns(status, creator string, page, pageSize int) ([]model.CampaignModel, int64, error) {
	var campaigns []model.CampaignModel
	var total int64

	query := r.db.Model(&model.CampaignModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if creator != "" {
		query = query.Where("creator = ?", creator)
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 获取数据
	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&campaigns).Error; err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// GetCampaign 获取活动详情
func (r *RecordLogic) GetCampaign(id int64) (*model.CampaignModel, error) {
	var c model.CampaignModel
	if err := r.db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("获取活动详情失败: %w", err)
	}

	return &c, nil
}

// GetCampaignStats 获取活动统计信息
func (r *RecordLogic) GetCampaignStats(id int64) (map[string]interface{}, error) {
	// 使用一个 SQL 查询获取所有统计信息
	var stats struct {
		CampaignId        int64  `json:"campaign_id"`
		Goal              uint64 `json:"goal"`
		Raised            uint64 `json:"raised"`
		Balance           uint64 `json:"balance"`
		TotalWithdrawn    uint64 `json:"total_withdrawn"`
		Status            string `json:"status"`
		CreationTime      int64  `json:"creation_time"`
		Deadline          int64  `json:"deadline"`
		ContributorCount  int64  `json:"contributor_count"`
		ContributionCount int64  `json:"contribution_count"`
		RefundCount       int64  `json:"refund_count"`
		RefundedAmount    uint64 `json:"refunded_amount"`
	}

	err := r.db.Raw(`
		SELECT
			c.id as campaign_id,
			c.goal,
			c.raised,
			c.balance,
			c.total_withdrawn,
			c.status,
			c.creation_time,
			c.deadline,
			COALESCE(contribution_stats.contributor_count, 0) as contributor_count,
			COALESCE(contribution_stats.contribution_count, 0) as contribution_count,
			COALESCE(refund_stats.refund_count, 0) as refund_count,
			COALESCE(refund_stats.refunded_amount, 0) as refunded_amount
		FROM campaign c
		LEFT JOIN (
			SELECT
				campaign_id,
				COUNT(DISTINCT contributor) as contributor_count,
				COUNT(*) as contribution_count
			FROM contribution_record
			WHERE campaign_id = ?
			GROUP BY campaign_id
		) contribution_stats ON c.id = contribution_stats.campaign_id
		LEFT JOIN (
			SELECT
				campaign_id,
				COUNT(*) as refund_count,
				COALESCE(SUM(amount), 0) as refunded_amount
			FROM refund_record
			WHERE campaign_id = ?
			GROUP BY campaign_id
		) refund_stats ON c.id = refund_stats.campaign_id
		WHERE c.id = ?
	`, id, id, id).Scan(&stats).Error

	if err != nil {
		return nil, fmt.Errorf("获取活动统计信息失败: %w", err)
	}

	// 检查活动是否存在
	if stats.CampaignId == 0 {
		return nil, ErrCampaignNotFound
	}

	// 计算进度百分比
	progress := float64(0)
	if stats.Goal > 0 {
		progress = float64(stats.Raised) / float64(stats.Goal) * 100
	}

	return map[string]interface{}{
		"campaign_id":        stats.CampaignId,
		"goal":               stats.Goal,
		"raised":             stats.Raised,
		"balance":            stats.Balance,
		"total_withdrawn":    stats.TotalWithdrawn,
		"status":             stats.Status,
		"creation_time":      stats.CreationTime,
		"deadline":           stats.Deadline,
		"contributor_count":  stats.ContributorCount,
		"contribution_count": stats.ContributionCount,
		"refund_count":       stats.RefundCount,
		"refunded_amount":    stats.RefundedAmount,
		"progress":           progress,
	}, nil
}

// GetContributions 获取活动贡献记录
func (r *RecordLogic) GetContributions(campaignId int64, contributor string, page, pageSize int) ([]model.ContributionRecordModel, int64, error) {
	var records []model.ContributionRecordModel
	var total int64

	query := r.db.Model(&model.ContributionRecordModel{}).Where("campaign_id = ?", campaignId)
	if contributor != "" {
		query = query.Where("contributor = ?", contributor)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("id DESC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// GetContributionStats 获取贡献统计信息
func (r *RecordLogic) GetContributionStats(campaignId int64) (map[string]interface{}, error) {
	var stats struct {
		TotalAmount       uint64 `json:"total_amount"`
		ContributionCount int64  `json:"contribution_count"`
		ContributorCount  int64  `json:"contributor_count"`
		FirstTimeCount    int64  `json:"first_time_count"`
	}

	err := r.db.Raw(`
		SELECT
			COALESCE(SUM(amount), 0) as total_amount,
			COUNT(*) as contribution_count,
			COUNT(DISTINCT contributor) as contributor_count,
			COUNT(*) FILTER (WHERE is_first) as first_time_count
		FROM contribution_record
		WHERE campaign_id = ?
	`, campaignId).Scan(&stats).Error

	if err != nil {
		return nil, fmt.Errorf("获取贡献统计信息失败: %w", err)
	}

	return map[string]interface{}{
		"campaign_id":        campaignId,
		"total_amount":       stats.TotalAmount,
		"contribution_count": stats.ContributionCount,
		"contributor_count":  stats.ContributorCount,
		"first_time_count":   stats.FirstTimeCount,
	}, nil
}

// GetRefunds 获取活动退款记录
func (r *RecordLogic) GetRefunds(campaignId int64, status string, page, pageSize int) ([]model.RefundRecordModel, int64, error) {
	var records []model.RefundRecordModel
	var total int64

	query := r.db.Model(&model.RefundRecordModel{}).Where("campaign_id = ?", campaignId)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("id DESC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// GetRefundStats 获取退款统计信息
func (r *RecordLogic) GetRefundStats(campaignId int64) (map[string]interface{}, error) {
	var stats struct {
		TotalAmount  uint64 `json:"total_amount"`
		RefundCount  int64  `json:"refund_count"`
		PendingCount int64  `json:"pending_count"`
		SuccessCount int64  `json:"success_count"`
		FailedCount  int64  `json:"failed_count"`
	}

	err := r.db.Raw(`
		SELECT
			COALESCE(SUM(amount), 0) as total_amount,
			COUNT(*) as refund_count,
			COUNT(*) FILTER (WHERE status = 'pending') as pending_count,
			COUNT(*) FILTER (WHERE status = 'success') as success_count,
			COUNT(*) FILTER (WHERE status = 'failed') as failed_count
		FROM refund_record
		WHERE campaign_id = ?
	`, campaignId).Scan(&stats).Error

	if err != nil {
		return nil, fmt.Errorf("获取退款统计信息失败: %w", err)
	}

	return map[string]interface{}{
		"campaign_id":   campaignId,
		"total_amount":  stats.TotalAmount,
		"refund_count":  stats.RefundCount,
		"pending_count": stats.PendingCount,
		"success_count": stats.SuccessCount,
		"failed_count":  stats.FailedCount,
	}, nil
}

// GetWithdrawals 获取活动提款记录
func (r *RecordLogic) GetWithdrawals(campaignId int64, page, pageSize int) ([]model.WithdrawalRecordModel, int64, error) {
	var records []model.WithdrawalRecordModel
	var total int64

	query := r.db.Model(&model.WithdrawalRecordModel{}).Where("campaign_id = ?", campaignId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("id DESC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
