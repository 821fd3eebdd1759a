package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

type DisputeHandler struct {
	disputes DisputeUseCase
}

func NewDisputeHandler(disputes DisputeUseCase) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

// OpenDispute POST /orders/:id/dispute
func (h *DisputeHandler) OpenDispute(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if !common.BindJSON(c, &req) {
		return
	}

	dispute, err := h.disputes.OpenDispute(c.Request.Context(), caller, orderID, req.Description)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dispute)
}

// GetOrderDispute GET /orders/:id/dispute
func (h *DisputeHandler) GetOrderDispute(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.disputes.GetOrderDispute(c.Request.Context(), caller, orderID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// ListMyDisputes GET /disputes/my
func (h *DisputeHandler) ListMyDisputes(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	disputes, err := h.disputes.ListMyDisputes(c.Request.Context(), caller, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, disputes)
}

// ListDisputes GET /admin/disputes?status=
func (h *DisputeHandler) ListDisputes(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	disputes, err := h.disputes.ListDisputes(c.Request.Context(), caller, c.Query("status"), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, disputes)
}

// StartReview POST /admin/disputes/:id/review
func (h *DisputeHandler) StartReview(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.disputes.StartReview(c.Request.Context(), caller, disputeID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// ResolveDispute POST /admin/disputes/:id/resolve
func (h *DisputeHandler) ResolveDispute(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req service.ResolveDisputeInput
	if !common.BindJSON(c, &req) {
		return
	}

	dispute, err := h.disputes.ResolveDispute(c.Request.Context(), caller, disputeID, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}
