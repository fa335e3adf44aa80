package model

import (
	"time"
)

// ContributionRecordModel 贡献记录
type ContributionRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId  int64  `json:"campaign_id" gorm:"not null;index"`
	Contributor string `json:"contributor" gorm:"not null;index"`
	Amount      uint64 `json:"amount" gorm:"not null"`
	Remark      string `json:"remark" gorm:"type:text"`
	Timestamp   int64  `json:"timestamp" gorm:"not null"`
	IsFirst     bool   `json:"is_first" gorm:"default:false"`
}

// TableName 自定义表名
func (ContributionRecordModel) TableName() string {
	return "contribution_record"
}
