package event

import (
	"encoding/json"

	"github.com/blues/gfs/internal/logger"
	"github.com/blues/gfs/internal/model"
	"github.com/blues/gfs/internal/notify"
	"gorm.io/gorm"
)

// Store 基于数据库的通知接收端。通知落库后由外部索引器消费，
// 写入失败只记录日志，不影响核心操作。
type Store struct {
	db *gorm.DB
}

// NewStore 创建通知存储
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Emit 持久化一条通知
func (s *Store) Emit(n notify.Notification) {
	data, err := json.Marshal(n.Data)
	if err != nil {
		logger.Error("Failed to marshal notification data for campaign %d: %v", n.CampaignID, err)
		data = []byte("{}")
	}

	record := model.EventModel{
		CampaignId: n.CampaignID,
		EventType:  string(n.Type),
		Data:       string(data),
		Timestamp:  n.Timestamp,
	}

	if err := s.db.Create(&record).Error; err != nil {
		logger.Error("Failed to persist %s event for campaign %d: %v", n.Type, n.CampaignID, err)
		return
	}

	logger.Debug("Emitted %s event for campaign %d", n.Type, n.CampaignID)
}

// GetCampaignEvents 获取某个活动的通知记录
func (s *Store) GetCampaignEvents(campaignId int64, eventType string, page, pageSize int) ([]model.EventModel, int64, error) {
	var events []model.EventModel
	var total int64

	query := s.db.Model(&model.EventModel{}).Where("campaign_id = ?", campaignId)
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("id ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}
