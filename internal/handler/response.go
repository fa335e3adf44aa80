package handler

import (
	"errors"
	"net/http"

	"github.com/blues/gfs/internal/campaign"
	"github.com/blues/gfs/internal/ledger"
	"github.com/blues/gfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// BusinessError 按错误类型返回对应状态码
func BusinessError(c *gin.Context, err error) {
	ErrorResponse(c, statusFor(err), err.Error())
}

// statusFor 业务错误到HTTP状态码的映射
func statusFor(err error) int {
	switch {
	case errors.Is(err, logic.ErrCampaignNotFound),
		errors.Is(err, ledger.ErrNoContribution):
		return http.StatusNotFound

	case errors.Is(err, campaign.ErrNotAuthorized),
		errors.Is(err, campaign.ErrCapMismatch),
		errors.Is(err, campaign.ErrSelfRefund),
		errors.Is(err, logic.ErrNotCapHolder):
		return http.StatusForbidden

	case errors.Is(err, campaign.ErrReentrancy),
		errors.Is(err, campaign.ErrCampaignNotActive),
		errors.Is(err, campaign.ErrCampaignPaused),
		errors.Is(err, campaign.ErrCampaignNotPaused),
		errors.Is(err, campaign.ErrCampaignExpired),
		errors.Is(err, campaign.ErrCampaignNotExpired),
		errors.Is(err, campaign.ErrAlreadyFinalized),
		errors.Is(err, campaign.ErrCampaignCancelled),
		errors.Is(err, campaign.ErrFundsAlreadyWithdrawn),
		errors.Is(err, campaign.ErrNotSuccessful),
		errors.Is(err, campaign.ErrRefundNotAllowed),
		errors.Is(err, campaign.ErrGoalAlreadyReached),
		errors.Is(err, campaign.ErrNoContributions),
		errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusConflict

	case errors.Is(err, campaign.ErrUnsupportedCurrency),
		errors.Is(err, campaign.ErrCurrencyMismatch),
		errors.Is(err, campaign.ErrEmptyField),
		errors.Is(err, campaign.ErrFieldTooLong),
		errors.Is(err, campaign.ErrEmptyReason),
		errors.Is(err, campaign.ErrRemarkTooLong),
		errors.Is(err, campaign.ErrInvalidAmount),
		errors.Is(err, campaign.ErrAmountTooLarge),
		errors.Is(err, campaign.ErrInvalidGoal),
		errors.Is(err, campaign.ErrInvalidDuration),
		errors.Is(err, campaign.ErrArithmeticOverflow),
		errors.Is(err, logic.ErrInvalidAddress),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrIndexOutOfRange),
		errors.Is(err, ledger.ErrBalanceOverflow):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
