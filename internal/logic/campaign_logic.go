package logic

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blues/gfs/internal/campaign"
	"github.com/blues/gfs/internal/clock"
	"github.com/blues/gfs/internal/currency"
	"github.com/blues/gfs/internal/ledger"
	"github.com/blues/gfs/internal/logger"
	"github.com/blues/gfs/internal/model"
	"github.com/blues/gfs/internal/notify"
	"github.com/blues/gfs/internal/poap"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

var (
	ErrCampaignNotFound = errors.New("活动不存在")
	ErrInvalidAddress   = errors.New("无效的地址")
	ErrNotCapHolder     = errors.New("调用者不是管理凭证持有者")
)

// Payer 对外打款接口，返回交易哈希
type Payer interface {
	Pay(to common.Address, amount uint64) (string, error)
}

// NopPayer 空实现，链未配置时使用
type NopPayer struct{}

// Pay 不做任何事
func (NopPayer) Pay(common.Address, uint64) (string, error) {
	return "", nil
}

// campaignEntry 单个活动的内存状态与串行化锁
type campaignEntry struct {
	mu       sync.Mutex
	campaign *campaign.Campaign
	adminCap *campaign.AdminCap
}

// CampaignLogic 活动业务逻辑。内存中的状态机是生命周期决策的唯一权威，
// 数据库保存快照与各类记录；每个活动持一把锁，操作按活动串行执行。
type CampaignLogic struct {
	db     *gorm.DB
	clock  clock.TimeSource
	sink   notify.Sink
	issuer poap.Issuer
	payer  Payer

	mu        sync.RWMutex
	campaigns map[int64]*campaignEntry
}

// NewCampaignLogic 创建活动业务逻辑
func NewCampaignLogic(db *gorm.DB, ts clock.TimeSource, sink notify.Sink, issuer poap.Issuer, payer Payer) *CampaignLogic {
	return &CampaignLogic{
		db:        db,
		clock:     ts,
		sink:      sink,
		issuer:    issuer,
		payer:     payer,
		campaigns: make(map[int64]*campaignEntry),
	}
}

// CreateCampaignParams 创建活动的参数
type CreateCampaignParams struct {
	Creator     string
	Title       string
	Description string
	Currency    string
	Goal        uint64
	Duration    int64
}

// CreateCampaign 创建活动。先落库取得ID，再构建内存状态机；
// 构建失败时回滚落库的行。
func (l *CampaignLogic) CreateCampaign(p CreateCampaignParams) (*model.CampaignModel, error) {
	creator, err := parseAddress(p.Creator)
	if err != nil {
		return nil, err
	}
	cur, ok := currency.BySymbol(p.Currency)
	if !ok {
		return nil, campaign.ErrUnsupportedCurrency
	}

	now := l.clock.NowMillis()

	record := model.CampaignModel{
		Title:        p.Title,
		Description:  p.Description,
		Currency:     cur.Symbol,
		Goal:         p.Goal,
		CreationTime: now,
		Status:       string(campaign.StatusActive),
		Creator:      creator.Hex(),
		CapHolder:    creator.Hex(),
	}

	tx := l.db.Begin()
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("创建活动记录失败: %w", err)
	}

	c, adminCap, err := campaign.New(record.Id, creator, p.Title, p.Description, cur, p.Goal, p.Duration, now, l.sink, l.issuer)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	record.Deadline = c.Deadline()
	if err := tx.Model(&record).Update("deadline", record.Deadline).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("更新活动截止时间失败: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.campaigns[record.Id] = &campaignEntry{campaign: c, adminCap: adminCap}
	l.mu.Unlock()

	logger.Info("Created campaign %d by %s, goal: %d %s", record.Id, creator.Hex(), p.Goal, cur.Symbol)

	return &record, nil
}

// Contribute 为活动贡献资金
func (l *CampaignLogic) Contribute(campaignId int64, contributorHex string, amount uint64, remark string) error {
	contributor, err := parseAddress(contributorHex)
	if err != nil {
		return err
	}

	return l.withCampaign(campaignId, func(e *campaignEntry) error {
		now := l.clock.NowMillis()
		payment := currency.NewPayment(e.campaign.Currency(), amount)

		isFirst, err := e.campaign.Contribute(contributor, payment, remark, now)
		if err != nil {
			return err
		}

		record := model.ContributionRecordModel{
			CampaignId:  campaignId,
			Contributor: contributor.Hex(),
			Amount:      amount,
			Remark:      remark,
			Timestamp:   now,
			IsFirst:     isFirst,
		}
		if err := l.db.Create(&record).Error; err != nil {
			logger.Error("Failed to persist contribution record for campaign %d: %v", campaignId, err)
		}

		l.syncCampaign(e)
		return nil
	})
}

// UpdateTitle 更新标题
func (l *CampaignLogic) UpdateTitle(campaignId int64, callerHex, title string) error {
	return l.updateMetadata(campaignId, callerHex, func(e *campaignEntry, now int64) error {
		return e.campaign.UpdateTitle(e.adminCap, title, now)
	})
}

// UpdateDescription 更新描述
func (l *CampaignLogic) UpdateDescription(campaignId int64, callerHex, description string) error {
	return l.updateMetadata(campaignId, callerHex, func(e *campaignEntry, now int64) error {
		return e.campaign.UpdateDescription(e.adminCap, description, now)
	})
}

// UpdateProfileURL 更新封面图片地址
func (l *CampaignLogic) UpdateProfileURL(campaignId int64, callerHex, url string) error {
	return l.updateMetadata(campaignId, callerHex, func(e *campaignEntry, now int64) error {
		return e.campaign.UpdateProfileURL(e.adminCap, url, now)
	})
}

// UpdateBackgroundURL 更新背景图片地址
func (l *CampaignLogic) UpdateBackgroundURL(campaignId int64, callerHex, url string) error {
	return l.updateMetadata(campaignId, callerHex, func(e *campaignEntry, now int64) error {
		return e.campaign.UpdateBackgroundURL(e.adminCap, url, now)
	})
}

// updateMetadata 凭证类操作的公共路径：调用者必须是当前凭证持有者
func (l *CampaignLogic) updateMetadata(campaignId int64, callerHex string, fn func(e *campaignEntry, now int64) error) error {
	caller, err := parseAddress(callerHex)
	if err != nil {
		return err
	}

	return l.withCampaign(campaignId, func(e *campaignEntry) error {
		if caller != e.adminCap.Holder() {
			return ErrNotCapHolder
		}
		if err := fn(e, l.clock.NowMillis()); err != nil {
			return err
		}
		l.syncCampaign(e)
		return nil
	})
}

// UpdateGoal 更新目标金额
func (l *CampaignLogic) UpdateGoal(campaignId int64, callerHex string, newGoal uint64) error {
	caller, err := parseAddress(callerHex)
	if err != nil {
		return err
	}

	return l.withCampaign(campaignId, func(e *campaignEntry) error {
		if caller != e.adminCap.Holder() {
			return ErrNotCapHolder
		}
		if err := e.campaign.UpdateGoal(e.adminCap, caller, newGoal, l.clock.NowMillis()); err != nil {
			return err
		}
		l.syncCampaign(e)
		return nil
	})
}

// Pause 暂停活动
func (l *CampaignLogic) Pause(campaignId int64, callerHex, reason string) error {
	caller, err := parseAddress(callerHex)
	if err != nil {
		return err
	}

	return l.withCampaign(campaignId, func(e *campaignEntry) error {
		if err := e.campaign.Pause(caller, reason, l.clock.NowMillis()); err != nil {
			return err
		}
		l.syncCampaign(e)
		return nil
	})
}

// Unpause 恢复活动
func (l *CampaignLogic) Unpause(campaignId int64, callerHex string) error {
	caller, err := parseAddress(callerHex)
	if err != nil {
		return err
	}

	return l.withCampaign(campaignId, func(e *campaignEntry) error {
		if err := e.campaign.Unpause(caller, l.clock.NowMillis()); err != nil {
			return err
		}
		l.syncCampaign(e)
		return nil
	})
}

// CancelCampaign 取消活动并为全部退款创建交付记录
func (l *CampaignLogic) CancelCampaign(campaignId int64, callerHex, reason string) error {
	caller, err := parseAddress(callerHex)
	if err != nil {
		return err
	}

	return l.withCampaign(campaignId, func(e *campaignEntry) error {
		now := l.clock.NowMillis()
		refunds, err := e.campaign.CancelCampaign(caller, reason, now)
		if err != nil {
			return err
		}

		l.persistRefunds(campaignId, refunds, reason, now)
		l.syncCampaign(e)

		logger.Info("Cancelled campaign %d, refunded %d contributors", campaignId, len(refunds))
		return nil
	})
}

// FinalizeCampaign 到期结算
func (l *CampaignLogic) FinalizeCampaign(campaignId int64, callerHex string) (campaign.Status, error) {
	caller, err := parseAddress(callerHex)
	if err != nil {
		return "", err
	}

	var final campaign.Status
	err = l.withCampaign(campaignId, func(e *campaignEntry) error {
		now := l.clock.NowMillis()
		status, refunds, err := e.campaign.FinalizeCampaign(caller, now)
		if err != nil {
			return err
		}
		final = status

		l.persistRefunds(campaignId, refunds, "活动未达标", now)
		l.syncCampaign(e)

		logger.Info("Finalized campaign %d with status %s", campaignId, status)
		return nil
	})
	return final, err
}

// WithdrawFunds 创建者提款。先提交内部状态，最后一步对外打款。
func (l *CampaignLogic) WithdrawFunds(campaignId int64, callerHex string, amount uint64) error {
	caller, err := parseAddress(callerHex)
	if err != nil {
		return err
	}

	return l.withCampaign(campaignId, func(e *campaignEntry) error {
		now := l.clock.NowMillis()
		payment, err := e.campaign.WithdrawFunds(caller, amount, now)
		if err != nil {
			return err
		}

		record := model.WithdrawalRecordModel{
			CampaignId: campaignId,
			Creator:    caller.Hex(),
			Amount:     payment.Amount(),
			Timestamp:  now,
			Status:     "pending",
		}
		if err := l.db.Create(&record).Error; err != nil {
			logger.Error("Failed to persist withdrawal record for campaign %d: %v", campaignId, err)
		}

		l.syncCampaign(e)

		// 对外打款是整个操作的最后一步
		txHash, err := l.payer.Pay(caller, payment.Amount())
		if err != nil {
			logger.Error("Failed to deliver withdrawal for campaign %d: %v", campaignId, err)
			l.updateDeliveryStatus(&model.WithdrawalRecordModel{}, record.Id, "failed", "")
			return nil
		}
		l.updateDeliveryStatus(&model.WithdrawalRecordModel{}, record.Id, "success", txHash)
		return nil
	})
}

// RefundContributor 贡献者取回退款
func (l *CampaignLogic) RefundContributor(campaignId int64, contributorHex, reason string) error {
	contributor, err := parseAddress(contributorHex)
	if err != nil {
		return err
	}

	return l.withCampaign(campaignId, func(e *campaignEntry) error {
		now := l.clock.NowMillis()
		amount, err := e.campaign.RefundContributor(contributor, reason, now)
		if err != nil {
			return err
		}

		l.persistRefunds(campaignId, []ledger.Refund{{Contributor: contributor, Amount: amount}}, reason, now)
		l.syncCampaign(e)
		return nil
	})
}

// EmergencyRefund 创建者为某个贡献者紧急退款
func (l *CampaignLogic) EmergencyRefund(campaignId int64, callerHex, contributorHex, reason string) error {
	caller, err := parseAddress(callerHex)
	if err != nil {
		return err
	}
	contributor, err := parseAddress(contributorHex)
	if err != nil {
		return err
	}

	return l.withCampaign(campaignId, func(e *campaignEntry) error {
		now := l.clock.NowMillis()
		amount, err := e.campaign.EmergencyRefund(caller, contributor, reason, now)
		if err != nil {
			return err
		}

		l.persistRefunds(campaignId, []ledger.Refund{{Contributor: contributor, Amount: amount}}, reason, now)
		l.syncCampaign(e)
		return nil
	})
}

// RefundBatch 分批退款，返回下一次的起始位置与是否完成
func (l *CampaignLogic) RefundBatch(campaignId int64, callerHex string, maxAmount uint64, startIndex, batchSize int, reason string) (int, bool, error) {
	caller, err := parseAddress(callerHex)
	if err != nil {
		return startIndex, false, err
	}

	var nextIndex int
	var complete bool
	err = l.withCampaign(campaignId, func(e *campaignEntry) error {
		now := l.clock.NowMillis()
		refunds, next, done, err := e.campaign.RefundBatch(caller, maxAmount, startIndex, batchSize, reason, now)
		if err != nil {
			return err
		}
		nextIndex, complete = next, done

		l.persistRefunds(campaignId, refunds, reason, now)
		l.syncCampaign(e)
		return nil
	})
	return nextIndex, complete, err
}

// GrantCap 将管理凭证转授给新持有者
func (l *CampaignLogic) GrantCap(campaignId int64, callerHex, newHolderHex string) error {
	caller, err := parseAddress(callerHex)
	if err != nil {
		return err
	}
	newHolder, err := parseAddress(newHolderHex)
	if err != nil {
		return err
	}

	return l.withCampaign(campaignId, func(e *campaignEntry) error {
		if err := e.adminCap.Grant(caller, newHolder); err != nil {
			return err
		}
		if err := l.db.Model(&model.CampaignModel{}).Where("id = ?", campaignId).
			Update("cap_holder", newHolder.Hex()).Error; err != nil {
			logger.Error("Failed to persist cap holder for campaign %d: %v", campaignId, err)
		}

		logger.Info("Granted admin cap of campaign %d to %s", campaignId, newHolder.Hex())
		return nil
	})
}

// FinalizeExpired 结算所有到期且仍可结算的活动，由定时任务调用
func (l *CampaignLogic) FinalizeExpired() int {
	now := l.clock.NowMillis()

	l.mu.RLock()
	var expired []int64
	for id, e := range l.campaigns {
		status := e.campaign.Status()
		if (status == campaign.StatusActive || status == campaign.StatusPaused) && e.campaign.IsExpired(now) {
			expired = append(expired, id)
		}
	}
	l.mu.RUnlock()

	finalized := 0
	for _, id := range expired {
		l.mu.RLock()
		e := l.campaigns[id]
		l.mu.RUnlock()

		creator := e.campaign.Creator().Hex()
		if _, err := l.FinalizeCampaign(id, creator); err != nil {
			logger.Error("Failed to finalize expired campaign %d: %v", id, err)
			continue
		}
		finalized++
	}

	return finalized
}

// withCampaign 在活动锁内执行操作
func (l *CampaignLogic) withCampaign(campaignId int64, fn func(e *campaignEntry) error) error {
	l.mu.RLock()
	e, ok := l.campaigns[campaignId]
	l.mu.RUnlock()
	if !ok {
		return ErrCampaignNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e)
}

// syncCampaign 将内存状态写回快照
func (l *CampaignLogic) syncCampaign(e *campaignEntry) {
	c := e.campaign
	updates := map[string]interface{}{
		"title":             c.Title(),
		"description":       c.Description(),
		"profile_url":       c.ProfileURL(),
		"background_url":    c.BackgroundURL(),
		"goal":              c.Goal(),
		"raised":            c.Raised(),
		"balance":           c.Balance(),
		"total_withdrawn":   c.TotalWithdrawn(),
		"contributor_count": c.ContributorCount(),
		"status":            string(c.Status()),
		"poap_issued":       c.PoapIssued(),
	}

	if err := l.db.Model(&model.CampaignModel{}).Where("id = ?", c.ID()).Updates(updates).Error; err != nil {
		logger.Error("Failed to sync campaign %d snapshot: %v", c.ID(), err)
	}
}

// persistRefunds 为退款创建待交付记录
func (l *CampaignLogic) persistRefunds(campaignId int64, refunds []ledger.Refund, reason string, now int64) {
	for _, r := range refunds {
		record := model.RefundRecordModel{
			CampaignId:  campaignId,
			Contributor: r.Contributor.Hex(),
			Amount:      r.Amount,
			Reason:      reason,
			Timestamp:   now,
			Status:      "pending",
		}
		if err := l.db.Create(&record).Error; err != nil {
			logger.Error("Failed to persist refund record for campaign %d: %v", campaignId, err)
		}
	}
}

// updateDeliveryStatus 回写交付结果
func (l *CampaignLogic) updateDeliveryStatus(m interface{}, recordId int64, status, txHash string) {
	updates := map[string]interface{}{
		"status": status,
	}
	if txHash != "" {
		updates["tx_hash"] = txHash
	}

	if err := l.db.Model(m).Where("id = ?", recordId).Updates(updates).Error; err != nil {
		logger.Error("Failed to update delivery status for record %d: %v", recordId, err)
	}
}

// parseAddress 解析十六进制地址
func parseAddress(hex string) (common.Address, error) {
	if !common.IsHexAddress(hex) {
		return common.Address{}, ErrInvalidAddress
	}
	return common.HexToAddress(hex), nil
}
