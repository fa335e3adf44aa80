package handler

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 请求模型

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	Creator     string `json:"creator" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Currency    string `json:"currency" binding:"required"`
	Goal        uint64 `json:"goal" binding:"required"`
	Duration    int64  `json:"duration" binding:"required"`
}

// UpdateMetadataRequest 更新活动元信息请求，只更新给出的字段
type UpdateMetadataRequest struct {
	Caller        string  `json:"caller" binding:"required"`
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	ProfileURL    *string `json:"profileUrl"`
	BackgroundURL *string `json:"backgroundUrl"`
}

// UpdateGoalRequest 更新目标金额请求
type UpdateGoalRequest struct {
	Caller string `json:"caller" binding:"required"`
	Goal   uint64 `json:"goal" binding:"required"`
}

// PauseRequest 暂停活动请求
type PauseRequest struct {
	Caller string `json:"caller" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// UnpauseRequest 恢复活动请求
type UnpauseRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// ContributeRequest 贡献请求
type ContributeRequest struct {
	Contributor string `json:"contributor" binding:"required"`
	Amount      uint64 `json:"amount" binding:"required"`
	Remark      string `json:"remark"`
}

// CancelRequest 取消活动请求
type CancelRequest struct {
	Caller string `json:"caller" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// FinalizeRequest 结算请求
type FinalizeRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// WithdrawRequest 提款请求
type WithdrawRequest struct {
	Caller string `json:"caller" binding:"required"`
	Amount uint64 `json:"amount" binding:"required"`
}

// RefundRequest 贡献者取回退款请求
type RefundRequest struct {
	Contributor string `json:"contributor" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
}

// EmergencyRefundRequest 紧急退款请求
type EmergencyRefundRequest struct {
	Caller      string `json:"caller" binding:"required"`
	Contributor string `json:"contributor" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
}

// RefundBatchRequest 分批退款请求
type RefundBatchRequest struct {
	Caller     string `json:"caller" binding:"required"`
	MaxAmount  uint64 `json:"maxAmount" binding:"required"`
	StartIndex int    `json:"startIndex"`
	BatchSize  int    `json:"batchSize" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// GrantCapRequest 转授管理凭证请求
type GrantCapRequest struct {
	Caller    string `json:"caller" binding:"required"`
	NewHolder string `json:"newHolder" binding:"required"`
}

// RefundBatchResponse 分批退款响应
type RefundBatchResponse struct {
	NextIndex int  `json:"nextIndex"`
	Complete  bool `json:"complete"`
}

// FinalizeResponse 结算响应
type FinalizeResponse struct {
	Status string `json:"status"`
}
