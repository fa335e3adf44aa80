package model

import (
	"time"
)

// EventModel 生命周期通知记录，供外部索引器消费
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;index"`
	EventType  string `json:"event_type" gorm:"not null"`
	Data       string `json:"data" gorm:"type:text"`
	Timestamp  int64  `json:"timestamp" gorm:"not null"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
