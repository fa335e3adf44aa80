package notify

// Type 通知类型
type Type string

const (
	TypeCampaignCreated      Type = "campaign_created"      // 活动创建
	TypeCampaignUpdated      Type = "campaign_updated"      // 活动信息更新
	TypeStatusChanged        Type = "status_changed"        // 状态变更
	TypeCampaignPaused       Type = "campaign_paused"       // 活动暂停
	TypeCampaignUnpaused     Type = "campaign_unpaused"     // 活动恢复
	TypeCampaignCancelled    Type = "campaign_cancelled"    // 活动取消
	TypeCampaignFinalized    Type = "campaign_finalized"    // 活动结算
	TypeContributionMade     Type = "contribution_made"     // 贡献成功
	TypeContributionRefunded Type = "contribution_refunded" // 贡献退款
	TypeGoalReached          Type = "goal_reached"          // 目标达成
	TypeGoalUpdated          Type = "goal_updated"          // 目标更新
	TypeFundsWithdrawn       Type = "funds_withdrawn"       // 资金提取
)

// Notification 生命周期通知，供外部索引器消费
type Notification struct {
	Type       Type                   `json:"type"`
	CampaignID int64                  `json:"campaign_id"`
	Timestamp  int64                  `json:"timestamp"`
	Data       map[string]interface{} `json:"data"`
}

// Sink 通知接收端，只发不等（fire-and-forget）
type Sink interface {
	Emit(n Notification)
}

// NopSink 空实现
type NopSink struct{}

// Emit 丢弃通知
func (NopSink) Emit(Notification) {}
