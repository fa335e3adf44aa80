package campaign

import "errors"

// 授权类错误
var (
	ErrNotAuthorized = errors.New("无操作权限")
	ErrCapMismatch   = errors.New("管理凭证与活动不匹配")
)

// 状态类错误
var (
	ErrReentrancy            = errors.New("检测到重入调用")
	ErrCampaignNotActive     = errors.New("活动不在进行中")
	ErrCampaignPaused        = errors.New("活动已暂停")
	ErrCampaignNotPaused     = errors.New("活动未处于暂停状态")
	ErrCampaignExpired       = errors.New("活动已到期")
	ErrCampaignNotExpired    = errors.New("活动尚未到期")
	ErrAlreadyFinalized      = errors.New("活动已结算")
	ErrCampaignCancelled     = errors.New("活动已取消")
	ErrFundsAlreadyWithdrawn = errors.New("资金已全部提取")
	ErrNotSuccessful         = errors.New("活动未成功")
	ErrRefundNotAllowed      = errors.New("当前状态不允许退款")
)

// 校验类错误
var (
	ErrUnsupportedCurrency = errors.New("不支持的币种")
	ErrCurrencyMismatch    = errors.New("币种与活动不匹配")
	ErrEmptyField          = errors.New("字段不能为空")
	ErrFieldTooLong        = errors.New("字段长度超出限制")
	ErrEmptyReason         = errors.New("原因不能为空")
	ErrRemarkTooLong       = errors.New("备注长度超出限制")
	ErrInvalidAmount       = errors.New("金额必须大于0")
	ErrAmountTooLarge      = errors.New("金额超出限制")
	ErrInvalidGoal         = errors.New("无效的目标金额")
	ErrInvalidDuration     = errors.New("无效的持续时间")
)

// 算术类错误
var (
	ErrArithmeticOverflow = errors.New("数值溢出")
)

// 账本一致性错误
var (
	ErrGoalAlreadyReached = errors.New("目标金额已达成")
	ErrNoContributions    = errors.New("没有可退款的贡献")
	ErrSelfRefund         = errors.New("创建者不能作为退款对象")
)
