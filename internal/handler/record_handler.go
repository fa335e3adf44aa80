package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/gfs/internal/event"
	"github.com/blues/gfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// RecordHandler 查询类接口
type RecordHandler struct {
	recordLogic *logic.RecordLogic
	eventStore  *event.Store
}

// NewRecordHandler 创建查询接口处理器
func NewRecordHandler(recordLogic *logic.RecordLogic, eventStore *event.Store) *RecordHandler {
	return &RecordHandler{
		recordLogic: recordLogic,
		eventStore:  eventStore,
	}
}

// GetCampaigns 获取活动列表
func (h *RecordHandler) GetCampaigns(c *gin.Context) {
	status := c.Query("status")
	creator := c.Query("creator")
	page, pageSize := pageParams(c)

	campaigns, total, err := h.recordLogic.GetCampaigns(status, creator, page, pageSize)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动列表成功", gin.H{
		"campaigns":  campaigns,
		"pagination": pagination(page, pageSize, total),
	})
}

// GetCampaign 获取活动详情
func (h *RecordHandler) GetCampaign(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	campaign, err := h.recordLogic.GetCampaign(id)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动详情成功", campaign)
}

// GetCampaignStats 获取活动统计信息
func (h *RecordHandler) GetCampaignStats(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	stats, err := h.recordLogic.GetCampaignStats(id)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动统计成功", stats)
}

// GetContributions 获取活动贡献记录
func (h *RecordHandler) GetContributions(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	contributor := c.Query("contributor")
	page, pageSize := pageParams(c)

	records, total, err := h.recordLogic.GetContributions(id, contributor, page, pageSize)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取贡献记录成功", gin.H{
		"records":    records,
		"pagination": pagination(page, pageSize, total),
	})
}

// GetContributionStats 获取贡献统计信息
func (h *RecordHandler) GetContributionStats(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	stats, err := h.recordLogic.GetContributionStats(id)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取贡献统计成功", stats)
}

// GetRefunds 获取活动退款记录
func (h *RecordHandler) GetRefunds(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	status := c.Query("status")
	page, pageSize := pageParams(c)

	records, total, err := h.recordLogic.GetRefunds(id, status, page, pageSize)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取退款记录成功", gin.H{
		"records":    records,
		"pagination": pagination(page, pageSize, total),
	})
}

// GetRefundStats 获取退款统计信息
func (h *RecordHandler) GetRefundStats(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	stats, err := h.recordLogic.GetRefundStats(id)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取退款统计成功", stats)
}

// GetWithdrawals 获取活动提款记录
func (h *RecordHandler) GetWithdrawals(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	page, pageSize := pageParams(c)

	records, total, err := h.recordLogic.GetWithdrawals(id, page, pageSize)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取提款记录成功", gin.H{
		"records":    records,
		"pagination": pagination(page, pageSize, total),
	})
}

// GetCampaignEvents 获取活动通知记录
func (h *RecordHandler) GetCampaignEvents(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	eventType := c.Query("type")
	page, pageSize := pageParams(c)

	events, total, err := h.eventStore.GetCampaignEvents(id, eventType, page, pageSize)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取通知记录成功", gin.H{
		"events":     events,
		"pagination": pagination(page, pageSize, total),
	})
}

// pageParams 解析分页参数
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

// pagination 构造分页信息
func pagination(page, pageSize int, total int64) Pagination {
	totalPage := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPage++
	}
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}
