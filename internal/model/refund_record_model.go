package model

import (
	"time"
)

// RefundRecordModel 退款记录。核心账本完成退款后创建，
// 状态跟踪对外交付的进度。
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId  int64  `json:"campaign_id" gorm:"not null;index"`
	Contributor string `json:"contributor" gorm:"not null"`
	Amount      uint64 `json:"amount" gorm:"not null"`
	Reason      string `json:"reason" gorm:"type:text"`
	Timestamp   int64  `json:"timestamp" gorm:"not null"`
	Status      string `json:"status" gorm:"default:'pending'"` // pending, success, failed
	TxHash      string `json:"tx_hash"`
}

// RefundStatus 退款交付状态
type RefundStatus string

const (
	RefundStatusPending RefundStatus = "pending" // 待交付
	RefundStatusSuccess RefundStatus = "success" // 成功
	RefundStatusFailed  RefundStatus = "failed"  // 失败
)

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
