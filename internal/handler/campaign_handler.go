package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/gfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// CampaignHandler 活动写操作接口
type CampaignHandler struct {
	campaignLogic *logic.CampaignLogic
}

// NewCampaignHandler 创建活动接口处理器
func NewCampaignHandler(campaignLogic *logic.CampaignLogic) *CampaignHandler {
	return &CampaignHandler{campaignLogic: campaignLogic}
}

// CreateCampaign 创建活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.campaignLogic.CreateCampaign(logic.CreateCampaignParams{
		Creator:     req.Creator,
		Title:       req.Title,
		Description: req.Description,
		Currency:    req.Currency,
		Goal:        req.Goal,
		Duration:    req.Duration,
	})
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "活动创建成功", record)
}

// UpdateMetadata 更新活动元信息
func (h *CampaignHandler) UpdateMetadata(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	var req UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// 逐个更新给出的字段
	if req.Title != nil {
		if err := h.campaignLogic.UpdateTitle(id, req.Caller, *req.Title); err != nil {
			BusinessError(c, err)
			return
		}
	}
	if req.Description != nil {
		if err := h.campaignLogic.UpdateDescription(id, req.Caller, *req.Description); err != nil {
			BusinessError(c, err)
			return
		}
	}
	if req.ProfileURL != nil {
		if err := h.campaignLogic.UpdateProfileURL(id, req.Caller, *req.ProfileURL); err != nil {
			BusinessError(c, err)
			return
		}
	}
	if req.BackgroundURL != nil {
		if err := h.campaignLogic.UpdateBackgroundURL(id, req.Caller, *req.BackgroundURL); err != nil {
			BusinessError(c, err)
			return
		}
	}

	SuccessResponse(c, http.StatusOK, "活动更新成功", nil)
}

// UpdateGoal 更新目标金额
func (h *CampaignHandler) UpdateGoal(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.UpdateGoal(id, req.Caller, req.Goal); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "目标金额更新成功", nil)
}

// Pause 暂停活动
func (h *CampaignHandler) Pause(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	var req PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.Pause(id, req.Caller, req.Reason); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "活动已暂停", nil)
}

// Unpause 恢复活动
func (h *CampaignHandler) Unpause(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	var req UnpauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.Unpause(id, req.Caller); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "活动已恢复", nil)
}

// Contribute 贡献资金
func (h *CampaignHandler) Contribute(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.Contribute(id, req.Contributor, req.Amount, req.Remark); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "贡献成功", nil)
}

// Cancel 取消活动
func (h *CampaignHandler) Cancel(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.CancelCampaign(id, req.Caller, req.Reason); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "活动已取消", nil)
}

// Finalize 到期结算
func (h *CampaignHandler) Finalize(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	var req FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.campaignLogic.FinalizeCampaign(id, req.Caller)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "活动已结算", FinalizeResponse{Status: string(status)})
}

// Withdraw 创建者提款
func (h *CampaignHandler) Withdraw(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.WithdrawFunds(id, req.Caller, req.Amount); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "提款成功", nil)
}

// Refund 贡献者取回退款
func (h *CampaignHandler) Refund(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.RefundContributor(id, req.Contributor, req.Reason); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "退款成功", nil)
}

// EmergencyRefund 创建者为某个贡献者紧急退款
func (h *CampaignHandler) EmergencyRefund(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	var req EmergencyRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.EmergencyRefund(id, req.Caller, req.Contributor, req.Reason); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "紧急退款成功", nil)
}

// RefundBatch 分批退款
func (h *CampaignHandler) RefundBatch(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	var req RefundBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	nextIndex, complete, err := h.campaignLogic.RefundBatch(id, req.Caller, req.MaxAmount, req.StartIndex, req.BatchSize, req.Reason)
	if err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "分批退款完成", RefundBatchResponse{
		NextIndex: nextIndex,
		Complete:  complete,
	})
}

// GrantCap 转授管理凭证
func (h *CampaignHandler) GrantCap(c *gin.Context) {
	id, err := campaignId(c)
	if err != nil {
		return
	}

	var req GrantCapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.GrantCap(id, req.Caller, req.NewHolder); err != nil {
		BusinessError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "凭证转授成功", nil)
}

// campaignId 解析路径中的活动ID，解析失败时已写入响应
func campaignId(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return 0, err
	}
	return id, nil
}
