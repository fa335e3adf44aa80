package logic

import (
	"fmt"

	"github.com/blues/gfs/internal/campaign"
	"github.com/blues/gfs/internal/currency"
	"github.com/blues/gfs/internal/logger"
	"github.com/blues/gfs/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// Load 服务启动时从数据库恢复全部活动到内存。
// 贡献记录按写入顺序回放，已退款的贡献不参与回放，
// 最后按已提取金额冲减，得到与快照一致的账本。
func (l *CampaignLogic) Load() error {
	var rows []model.CampaignModel
	if err := l.db.Order("id ASC").Find(&rows).Error; err != nil {
		return fmt.Errorf("加载活动快照失败: %w", err)
	}

	loaded := 0
	for _, row := range rows {
		e, err := l.restoreCampaign(&row)
		if err != nil {
			logger.Error("Failed to restore campaign %d: %v", row.Id, err)
			continue
		}

		l.mu.Lock()
		l.campaigns[row.Id] = e
		l.mu.Unlock()
		loaded++
	}

	logger.Info("Restored %d of %d campaigns from database", loaded, len(rows))
	return nil
}

// restoreCampaign 恢复单个活动
func (l *CampaignLogic) restoreCampaign(row *model.CampaignModel) (*campaignEntry, error) {
	cur, ok := currency.BySymbol(row.Currency)
	if !ok {
		return nil, campaign.ErrUnsupportedCurrency
	}

	contributions, err := l.liveContributions(row.Id)
	if err != nil {
		return nil, err
	}

	c, adminCap, err := campaign.Restore(campaign.RestoreParams{
		ID:             row.Id,
		Creator:        common.HexToAddress(row.Creator),
		CapHolder:      common.HexToAddress(row.CapHolder),
		Title:          row.Title,
		Description:    row.Description,
		ProfileURL:     row.ProfileURL,
		BackgroundURL:  row.BackgroundURL,
		Currency:       cur,
		Goal:           row.Goal,
		CreationTime:   row.CreationTime,
		Deadline:       row.Deadline,
		Status:         campaign.Status(row.Status),
		TotalWithdrawn: row.TotalWithdrawn,
		PoapIssued:     row.PoapIssued,
		Contributions:  contributions,
	}, l.sink, l.issuer)
	if err != nil {
		return nil, err
	}

	if c.Balance() != row.Balance {
		logger.Warn("Campaign %d balance mismatch after restore: ledger %d, snapshot %d", row.Id, c.Balance(), row.Balance)
	}

	return &campaignEntry{campaign: c, adminCap: adminCap}, nil
}

// liveContributions 取仍然在账的贡献。退款会一次性清掉该贡献者
// 截至退款时刻的全部贡献，因此只回放最近一次退款之后的记录。
func (l *CampaignLogic) liveContributions(campaignId int64) ([]campaign.RestoredContribution, error) {
	var contribRows []model.ContributionRecordModel
	if err := l.db.Where("campaign_id = ?", campaignId).
		Order("id ASC").
		Find(&contribRows).Error; err != nil {
		return nil, fmt.Errorf("加载贡献记录失败: %w", err)
	}

	var refundRows []model.RefundRecordModel
	if err := l.db.Where("campaign_id = ?", campaignId).
		Order("id ASC").
		Find(&refundRows).Error; err != nil {
		return nil, fmt.Errorf("加载退款记录失败: %w", err)
	}

	lastRefund := make(map[string]int64)
	for _, r := range refundRows {
		if r.Timestamp > lastRefund[r.Contributor] {
			lastRefund[r.Contributor] = r.Timestamp
		}
	}

	var live []campaign.RestoredContribution
	for _, row := range contribRows {
		if ts, ok := lastRefund[row.Contributor]; ok && row.Timestamp <= ts {
			continue
		}
		live = append(live, campaign.RestoredContribution{
			Contributor: common.HexToAddress(row.Contributor),
			Amount:      row.Amount,
			Timestamp:   row.Timestamp,
			Remark:      row.Remark,
		})
	}

	return live, nil
}
