package model

import (
	"time"
)

// CampaignModel 众筹活动快照。生命周期决策以内存中的状态机为准，
// 该表用于查询、报表与服务重启后的恢复。
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title         string `json:"title" gorm:"not null"`
	Description   string `json:"description" gorm:"type:text"`
	ProfileURL    string `json:"profile_url"`
	BackgroundURL string `json:"background_url"`

	// 众筹信息
	Currency         string `json:"currency" gorm:"not null"`
	Goal             uint64 `json:"goal" gorm:"not null"`
	Raised           uint64 `json:"raised" gorm:"default:0"`
	Balance          uint64 `json:"balance" gorm:"default:0"`
	TotalWithdrawn   uint64 `json:"total_withdrawn" gorm:"default:0"`
	ContributorCount int    `json:"contributor_count" gorm:"default:0"`

	// 时间信息（毫秒时间戳）
	CreationTime int64 `json:"creation_time" gorm:"not null"`
	Deadline     int64 `json:"deadline" gorm:"not null"`

	// 状态
	Status     string `json:"status" gorm:"default:'active'"`
	PoapIssued bool   `json:"poap_issued" gorm:"default:false"`

	// 创建者与凭证持有者
	Creator   string `json:"creator" gorm:"not null"`
	CapHolder string `json:"cap_holder" gorm:"not null"`
}

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
