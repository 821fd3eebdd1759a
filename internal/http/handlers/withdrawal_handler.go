package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

type WithdrawalHandler struct {
	svc WithdrawalUseCase
}

func NewWithdrawalHandler(s WithdrawalUseCase) *WithdrawalHandler {
	return &WithdrawalHandler{svc: s}
}

// GetBalance GET /balance
func (h *WithdrawalHandler) GetBalance(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}

	balance, err := h.svc.GetBalance(c.Request.Context(), caller)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// CreateWithdrawal POST /withdrawals
func (h *WithdrawalHandler) CreateWithdrawal(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if !common.BindJSON(c, &req) {
		return
	}

	w, err := h.svc.RequestWithdrawal(c.Request.Context(), caller, req.Amount)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// ListMyWithdrawals GET /withdrawals/my
func (h *WithdrawalHandler) ListMyWithdrawals(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	withdrawals, err := h.svc.ListMyWithdrawals(c.Request.Context(), caller, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawals)
}

// ListWithdrawals GET /admin/withdrawals?status=
func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	withdrawals, err := h.svc.ListWithdrawals(c.Request.Context(), caller, c.Query("status"), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawals)
}

// ProcessWithdrawal POST /admin/withdrawals/:id/process
func (h *WithdrawalHandler) ProcessWithdrawal(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}
	withdrawalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req service.ProcessWithdrawalInput
	if !common.BindJSON(c, &req) {
		return
	}

	w, err := h.svc.ProcessWithdrawal(c.Request.Context(), caller, withdrawalID, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// CompleteWithdrawal POST /admin/withdrawals/:id/complete
func (h *WithdrawalHandler) CompleteWithdrawal(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}
	withdrawalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	w, err := h.svc.CompleteWithdrawal(c.Request.Context(), caller, withdrawalID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
