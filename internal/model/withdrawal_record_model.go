package model

import (
	"time"
)

// WithdrawalRecordModel 创建者提款记录
type WithdrawalRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;index"`
	Creator    string `json:"creator" gorm:"not null"`
	Amount     uint64 `json:"amount" gorm:"not null"`
	Timestamp  int64  `json:"timestamp" gorm:"not null"`
	Status     string `json:"status" gorm:"default:'pending'"` // pending, success, failed
	TxHash     string `json:"tx_hash"`
}

// TableName 自定义表名
func (WithdrawalRecordModel) TableName() string {
	return "withdrawal_record"
}
