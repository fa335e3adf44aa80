package model

import (
	"time"
)

// PoapRecordModel 参与证明发放记录
type PoapRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;index"`
	Recipient  string `json:"recipient" gorm:"not null"`
	Amount     uint64 `json:"amount" gorm:"not null"`
	Timestamp  int64  `json:"timestamp" gorm:"not null"`
	Status     string `json:"status" gorm:"default:'pending'"` // pending, success, failed
	TxHash     string `json:"tx_hash"`
}

// TableName 自定义表名
func (PoapRecordModel) TableName() string {
	return "poap_record"
}
