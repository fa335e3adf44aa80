package campaign

import (
	"math"

	"github.com/blues/gfs/internal/currency"
	"github.com/blues/gfs/internal/ledger"
	"github.com/blues/gfs/internal/logger"
	"github.com/blues/gfs/internal/notify"
	"github.com/blues/gfs/internal/poap"
	"github.com/ethereum/go-ethereum/common"
)

// Status 活动状态
type Status string

const (
	StatusActive     Status = "active"     // 进行中
	StatusPaused     Status = "paused"     // 已暂停
	StatusSuccessful Status = "successful" // 成功
	StatusFailed     Status = "failed"     // 失败
	StatusCancelled  Status = "cancelled"  // 已取消
	StatusWithdrawn  Status = "withdrawn"  // 资金已提取
)

// 字段与数值边界
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 1000
	MaxURLLen         = 2048
	MaxRemarkLen      = 500

	MaxGoal           = uint64(1_000_000_000_000_000_000) // 10^18
	MinDurationMillis = int64(1000)
	MaxDurationMillis = int64(31_536_000_000) // 一年

	// 目标金额上限，保证百分比计算不溢出
	maxGoalForPercent = math.MaxUint64 / 100
)

// Campaign 众筹活动：元数据、目标、截止时间、状态机与贡献账本的组合。
// 每个活动是独立的可变资源，逻辑上一次只处理一个操作；busy 标志
// 防御外部回调在操作未完成时重入同一活动。
type Campaign struct {
	id            int64
	creator       common.Address
	title         string
	description   string
	profileURL    string
	backgroundURL string

	currency currency.Currency
	goal     uint64
	fund     *ledger.Ledger

	creationTime int64
	deadline     int64

	status         Status
	totalWithdrawn uint64
	busy           bool
	poapIssued     bool

	sink   notify.Sink
	issuer poap.Issuer
}

// New 创建活动并返回与之绑定的管理凭证
func New(id int64, creator common.Address, title, description string, cur currency.Currency, goal uint64, durationMillis, now int64, sink notify.Sink, issuer poap.Issuer) (*Campaign, *AdminCap, error) {
	if !currency.Supported(cur) {
		return nil, nil, ErrUnsupportedCurrency
	}
	if title == "" || description == "" {
		return nil, nil, ErrEmptyField
	}
	if len(title) > MaxTitleLen || len(description) > MaxDescriptionLen {
		return nil, nil, ErrFieldTooLong
	}
	if goal == 0 || goal > MaxGoal {
		return nil, nil, ErrInvalidGoal
	}
	if durationMillis < MinDurationMillis || durationMillis > MaxDurationMillis {
		return nil, nil, ErrInvalidDuration
	}
	if now > math.MaxInt64-durationMillis {
		return nil, nil, ErrArithmeticOverflow
	}

	c := &Campaign{
		id:           id,
		creator:      creator,
		title:        title,
		description:  description,
		currency:     cur,
		goal:         goal,
		fund:         ledger.New(),
		creationTime: now,
		deadline:     now + durationMillis,
		status:       StatusActive,
		sink:         sink,
		issuer:       issuer,
	}
	cap := &AdminCap{campaignID: id, holder: creator}

	c.emit(notify.TypeCampaignCreated, now, map[string]interface{}{
		"creator":  creator.Hex(),
		"title":    title,
		"goal":     goal,
		"currency": cur.Symbol,
		"deadline": c.deadline,
	})

	return c, cap, nil
}

// UpdateTitle 更新标题
func (c *Campaign) UpdateTitle(cap *AdminCap, title string, now int64) error {
	return c.updateField(cap, "title", title, MaxTitleLen, now)
}

// UpdateDescription 更新描述
func (c *Campaign) UpdateDescription(cap *AdminCap, description string, now int64) error {
	return c.updateField(cap, "description", description, MaxDescriptionLen, now)
}

// UpdateProfileURL 更新封面图片地址
func (c *Campaign) UpdateProfileURL(cap *AdminCap, url string, now int64) error {
	return c.updateField(cap, "profile_url", url, MaxURLLen, now)
}

// UpdateBackgroundURL 更新背景图片地址
func (c *Campaign) UpdateBackgroundURL(cap *AdminCap, url string, now int64) error {
	return c.updateField(cap, "background_url", url, MaxURLLen, now)
}

// updateField 元数据更新的公共路径：凭证匹配、进行中、未到期、非空且在长度限制内
func (c *Campaign) updateField(cap *AdminCap, field, value string, maxLen int, now int64) error {
	if c.busy {
		return ErrReentrancy
	}
	if err := c.authorize(cap); err != nil {
		return err
	}
	if c.status != StatusActive {
		return ErrCampaignNotActive
	}
	if now >= c.deadline {
		return ErrCampaignExpired
	}
	if value == "" {
		return ErrEmptyField
	}
	if len(value) > maxLen {
		return ErrFieldTooLong
	}

	c.busy = true
	switch field {
	case "title":
		c.title = value
	case "description":
		c.description = value
	case "profile_url":
		c.profileURL = value
	case "background_url":
		c.backgroundURL = value
	}
	c.busy = false

	c.emit(notify.TypeCampaignUpdated, now, map[string]interface{}{
		"field": field,
	})

	return nil
}

// UpdateGoal 更新目标金额。新目标不得低于已筹金额（否则等同于追认成功）；
// 若新目标已被当前筹集额覆盖且活动仍在进行中，立即转为成功。
func (c *Campaign) UpdateGoal(cap *AdminCap, caller common.Address, newGoal uint64, now int64) error {
	if c.busy {
		return ErrReentrancy
	}
	if err := c.authorize(cap); err != nil {
		return err
	}
	if c.status != StatusActive {
		return ErrCampaignNotActive
	}
	if now >= c.deadline {
		return ErrCampaignExpired
	}
	if newGoal == 0 || newGoal > MaxGoal {
		return ErrInvalidGoal
	}
	if newGoal > maxGoalForPercent {
		return ErrArithmeticOverflow
	}

	raised := c.fund.Balance()
	if newGoal < raised {
		return ErrInvalidGoal
	}

	oldGoal := c.goal
	crossed := raised >= newGoal

	c.busy = true
	c.goal = newGoal
	if crossed {
		c.status = StatusSuccessful
	}
	c.busy = false

	c.emit(notify.TypeGoalUpdated, now, map[string]interface{}{
		"old_goal":       oldGoal,
		"new_goal":       newGoal,
		"current_raised": raised,
		"updater":        caller.Hex(),
	})
	if crossed {
		c.emitStatusChanged(StatusActive, StatusSuccessful, now)
		c.emitGoalReached(raised, now)
		c.issuePoaps(now)
	}

	return nil
}

// Pause 暂停活动，仅创建者可以执行
func (c *Campaign) Pause(caller common.Address, reason string, now int64) error {
	if c.busy {
		return ErrReentrancy
	}
	if caller != c.creator {
		return ErrNotAuthorized
	}
	if c.status != StatusActive {
		return ErrCampaignNotActive
	}
	if reason == "" {
		return ErrEmptyReason
	}

	c.busy = true
	c.status = StatusPaused
	c.busy = false

	c.emit(notify.TypeCampaignPaused, now, map[string]interface{}{
		"reason": reason,
	})
	c.emitStatusChanged(StatusActive, StatusPaused, now)

	return nil
}

// Unpause 恢复活动，仅创建者可以执行，且活动未到期
func (c *Campaign) Unpause(caller common.Address, now int64) error {
	if c.busy {
		return ErrReentrancy
	}
	if caller != c.creator {
		return ErrNotAuthorized
	}
	if c.status != StatusPaused {
		return ErrCampaignNotPaused
	}
	if now >= c.deadline {
		return ErrCampaignExpired
	}

	c.busy = true
	c.status = StatusActive
	c.busy = false

	c.emit(notify.TypeCampaignUnpaused, now, nil)
	c.emitStatusChanged(StatusPaused, StatusActive, now)

	return nil
}

// Contribute 接受一笔贡献。筹集额从账本重新推导，不信任缓存值；
// 跨过目标金额时转为成功并触发一次性的参与证明发放。
// 返回该贡献者是否为首次贡献。
func (c *Campaign) Contribute(contributor common.Address, payment currency.Payment, remark string, now int64) (bool, error) {
	if c.busy {
		return false, ErrReentrancy
	}
	// 主检查已排除暂停状态，显式拒绝作为纵深防御
	if c.status == StatusPaused {
		return false, ErrCampaignPaused
	}
	if c.status != StatusActive {
		return false, ErrCampaignNotActive
	}
	if now >= c.deadline {
		return false, ErrCampaignExpired
	}
	if payment.Currency() != c.currency {
		return false, ErrCurrencyMismatch
	}

	amount := payment.Amount()
	if amount == 0 {
		return false, ErrInvalidAmount
	}
	if amount > MaxGoal {
		return false, ErrAmountTooLarge
	}
	if len(remark) > MaxRemarkLen {
		return false, ErrRemarkTooLong
	}

	raised := c.fund.Balance()
	if raised >= c.goal {
		return false, ErrGoalAlreadyReached
	}
	if amount > c.goal || raised > c.goal-amount {
		return false, ErrArithmeticOverflow
	}

	isFirst := !c.fund.IsContributor(contributor)

	c.busy = true
	if err := c.fund.AddContribution(contributor, amount, remark, now); err != nil {
		c.busy = false
		return false, err
	}
	newRaised := c.fund.Balance()
	crossed := raised < c.goal && c.goal <= newRaised
	if crossed {
		c.status = StatusSuccessful
	}
	c.busy = false

	c.emit(notify.TypeContributionMade, now, map[string]interface{}{
		"contributor": contributor.Hex(),
		"amount":      amount,
		"new_total":   newRaised,
		"is_first":    isFirst,
		"remark":      remark,
	})
	if crossed {
		c.emitStatusChanged(StatusActive, StatusSuccessful, now)
		c.emitGoalReached(newRaised, now)
	}
	if c.status == StatusSuccessful && !c.poapIssued {
		c.issuePoaps(now)
	}

	return isFirst, nil
}

// RefundContributor 贡献者在活动取消或失败后取回自己的全部贡献
func (c *Campaign) RefundContributor(contributor common.Address, reason string, now int64) (uint64, error) {
	if c.busy {
		return 0, ErrReentrancy
	}
	if c.status != StatusCancelled && c.status != StatusFailed {
		return 0, ErrRefundNotAllowed
	}
	if reason == "" {
		return 0, ErrEmptyReason
	}
	if !c.fund.IsContributor(contributor) {
		return 0, ErrNoContributions
	}

	c.busy = true
	amount, err := c.fund.WithdrawContribution(contributor)
	c.busy = false
	if err != nil {
		return 0, err
	}

	c.emit(notify.TypeContributionRefunded, now, map[string]interface{}{
		"contributor": contributor.Hex(),
		"amount":      amount,
		"reason":      reason,
	})

	return amount, nil
}

// CancelCampaign 取消活动，仅创建者可以执行。已筹资金全部退回贡献者，
// 退款的对外交付由调用方负责。
func (c *Campaign) CancelCampaign(caller common.Address, reason string, now int64) ([]ledger.Refund, error) {
	if c.busy {
		return nil, ErrReentrancy
	}
	if caller != c.creator {
		return nil, ErrNotAuthorized
	}
	if err := c.checkNotFinal(); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, ErrEmptyReason
	}

	raised := c.fund.Balance()
	count := c.fund.ContributorCount()
	oldStatus := c.status

	c.busy = true
	var refunds []ledger.Refund
	if raised > 0 {
		refunds, _ = c.fund.RefundAllContributors()
	}
	c.status = StatusCancelled
	c.busy = false

	c.emit(notify.TypeCampaignCancelled, now, map[string]interface{}{
		"reason":            reason,
		"total":             raised,
		"contributor_count": count,
	})
	c.emitStatusChanged(oldStatus, StatusCancelled, now)

	return refunds, nil
}

// FinalizeCampaign 到期结算，仅创建者可以执行。筹集额达到目标则成功，
// 否则失败并退回全部贡献。已经成功的活动也可以结算（触发发放与结算通知）。
func (c *Campaign) FinalizeCampaign(caller common.Address, now int64) (Status, []ledger.Refund, error) {
	if c.busy {
		return c.status, nil, ErrReentrancy
	}
	if caller != c.creator {
		return c.status, nil, ErrNotAuthorized
	}
	if now < c.deadline {
		return c.status, nil, ErrCampaignNotExpired
	}
	if err := c.checkNotFinal(); err != nil {
		return c.status, nil, err
	}

	raised := c.totalRaised()
	count := c.fund.ContributorCount()
	oldStatus := c.status

	c.busy = true
	var refunds []ledger.Refund
	var final Status
	if raised >= c.goal {
		final = StatusSuccessful
	} else {
		final = StatusFailed
		if c.fund.Balance() > 0 {
			refunds, _ = c.fund.RefundAllContributors()
		}
	}
	c.status = final
	c.busy = false

	c.emit(notify.TypeCampaignFinalized, now, map[string]interface{}{
		"status":            string(final),
		"total":             raised,
		"goal":              c.goal,
		"contributor_count": count,
	})
	if oldStatus != final {
		c.emitStatusChanged(oldStatus, final, now)
	}
	if final == StatusSuccessful {
		// 贡献阶段已达标时这里会重复发出 goal_reached，
		// 下游消费者需要按(类型,活动)去重
		c.emitGoalReached(raised, now)
		c.issuePoaps(now)
	}

	return final, refunds, nil
}

// WithdrawFunds 创建者提取资金。仅在活动成功且已到期后允许，
// 累计提取额达到筹集总额时活动转为已提取。返回待交付的资金，
// 对外交付必须是调用方的最后一步。
func (c *Campaign) WithdrawFunds(caller common.Address, amount uint64, now int64) (currency.Payment, error) {
	var zero currency.Payment
	if c.busy {
		return zero, ErrReentrancy
	}
	if caller != c.creator {
		return zero, ErrNotAuthorized
	}
	if now < c.deadline {
		return zero, ErrCampaignNotExpired
	}
	switch c.status {
	case StatusPaused:
		return zero, ErrCampaignPaused
	case StatusWithdrawn:
		return zero, ErrFundsAlreadyWithdrawn
	case StatusCancelled:
		return zero, ErrCampaignCancelled
	case StatusSuccessful:
		// 允许提取
	default:
		return zero, ErrNotSuccessful
	}
	if amount == 0 {
		return zero, ErrInvalidAmount
	}

	raised := c.totalRaised()
	if amount > raised {
		return zero, ErrAmountTooLarge
	}
	if c.totalWithdrawn > raised-amount {
		return zero, ErrArithmeticOverflow
	}

	c.busy = true
	if err := c.fund.WithdrawForCreator(amount); err != nil {
		c.busy = false
		return zero, err
	}
	c.totalWithdrawn += amount
	withdrawn := c.totalWithdrawn == raised
	if withdrawn {
		c.status = StatusWithdrawn
	}
	c.busy = false

	c.emit(notify.TypeFundsWithdrawn, now, map[string]interface{}{
		"amount":          amount,
		"total_withdrawn": c.totalWithdrawn,
	})
	if withdrawn {
		c.emitStatusChanged(StatusSuccessful, StatusWithdrawn, now)
	}

	return currency.NewPayment(c.currency, amount), nil
}

// EmergencyRefund 创建者主动为某个贡献者退款，资金提取后不再允许
func (c *Campaign) EmergencyRefund(caller, contributor common.Address, reason string, now int64) (uint64, error) {
	if c.busy {
		return 0, ErrReentrancy
	}
	if caller != c.creator {
		return 0, ErrNotAuthorized
	}
	switch c.status {
	case StatusActive, StatusPaused, StatusCancelled, StatusFailed:
		// 允许紧急退款
	case StatusWithdrawn:
		return 0, ErrFundsAlreadyWithdrawn
	default:
		return 0, ErrRefundNotAllowed
	}
	if contributor == c.creator {
		return 0, ErrSelfRefund
	}
	if reason == "" {
		return 0, ErrEmptyReason
	}
	if !c.fund.IsContributor(contributor) {
		return 0, ErrNoContributions
	}

	c.busy = true
	amount, err := c.fund.WithdrawContribution(contributor)
	c.busy = false
	if err != nil {
		return 0, err
	}

	c.emit(notify.TypeContributionRefunded, now, map[string]interface{}{
		"contributor": contributor.Hex(),
		"amount":      amount,
		"reason":      reason,
		"emergency":   true,
	})

	return amount, nil
}

// RefundBatch 创建者在活动取消或失败后分批退款，限定每次检查的贡献者数量，
// 避免单次调用的工作量不受控。返回本批退款、下一次的起始位置与是否完成。
func (c *Campaign) RefundBatch(caller common.Address, maxAmount uint64, startIndex, batchSize int, reason string, now int64) ([]ledger.Refund, int, bool, error) {
	if c.busy {
		return nil, startIndex, false, ErrReentrancy
	}
	if caller != c.creator {
		return nil, startIndex, false, ErrNotAuthorized
	}
	if c.status != StatusCancelled && c.status != StatusFailed {
		return nil, startIndex, false, ErrRefundNotAllowed
	}
	if reason == "" {
		return nil, startIndex, false, ErrEmptyReason
	}

	c.busy = true
	refunds, nextIndex, complete := c.fund.RefundContributorsUnderAmount(maxAmount, startIndex, batchSize)
	c.busy = false

	for _, r := range refunds {
		c.emit(notify.TypeContributionRefunded, now, map[string]interface{}{
			"contributor": r.Contributor.Hex(),
			"amount":      r.Amount,
			"reason":      reason,
		})
	}

	return refunds, nextIndex, complete, nil
}

// checkNotFinal 已经失败/取消/提取的活动不允许再变更
func (c *Campaign) checkNotFinal() error {
	switch c.status {
	case StatusFailed:
		return ErrAlreadyFinalized
	case StatusCancelled:
		return ErrCampaignCancelled
	case StatusWithdrawn:
		return ErrFundsAlreadyWithdrawn
	}
	return nil
}

// authorize 校验管理凭证与活动的绑定关系
func (c *Campaign) authorize(cap *AdminCap) error {
	if cap == nil || cap.campaignID != c.id {
		return ErrCapMismatch
	}
	return nil
}

// issuePoaps 向所有有贡献的地址发放参与证明，整个活动生命周期只执行一次。
// 单个地址的发放失败只记录日志，不影响已提交的账本与状态。
func (c *Campaign) issuePoaps(now int64) {
	if c.poapIssued {
		return
	}
	for i := 0; i < c.fund.ContributorCount(); i++ {
		recipient, err := c.fund.ContributorAt(i)
		if err != nil {
			break
		}
		total := c.fund.ContributorTotal(recipient)
		// 不变式下不会出现0，防御性跳过
		if total == 0 {
			continue
		}
		if err := c.issuer.Issue(c.id, recipient, c.title, c.description, total, c.profileURL, now); err != nil {
			logger.Error("Failed to issue poap for campaign %d to %s: %v", c.id, recipient.Hex(), err)
		}
	}
	c.poapIssued = true
}

// totalRaised 历史筹集总额 = 账本余额 + 已提取金额
func (c *Campaign) totalRaised() uint64 {
	return c.fund.Balance() + c.totalWithdrawn
}

func (c *Campaign) emit(t notify.Type, now int64, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	c.sink.Emit(notify.Notification{
		Type:       t,
		CampaignID: c.id,
		Timestamp:  now,
		Data:       data,
	})
}

func (c *Campaign) emitStatusChanged(old, new Status, now int64) {
	c.emit(notify.TypeStatusChanged, now, map[string]interface{}{
		"old_status": string(old),
		"new_status": string(new),
	})
}

func (c *Campaign) emitGoalReached(total uint64, now int64) {
	c.emit(notify.TypeGoalReached, now, map[string]interface{}{
		"total":             total,
		"goal":              c.goal,
		"contributor_count": c.fund.ContributorCount(),
		"time_to_goal":      now - c.creationTime,
	})
}
