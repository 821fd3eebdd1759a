package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-escrow/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/service"
	"github.com/ignatzorin/freelance-escrow/internal/storage"
)

// multipartOverhead - запас на заголовки и текстовые поля формы сверх размера файла.
const multipartOverhead = 1 << 20

type OrderHandler struct {
	orders    OrderUseCase
	revisions RevisionUseCase
	files     FileStore
}

// NewOrderHandler создаёт новый хэндлер.
func NewOrderHandler(orders OrderUseCase, revisions RevisionUseCase, files FileStore) *OrderHandler {
	return &OrderHandler{orders: orders, revisions: revisions, files: files}
}

// CreateOrder обрабатывает POST /orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}

	var req service.CreateOrderInput
	if !common.BindJSON(c, &req) {
		return
	}

	details, err := h.orders.CreateOrder(c.Request.Context(), caller, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, details)
}

// ListMyOrders обрабатывает GET /orders/my.
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}

	limit, offset := common.GetPagination(c)
	orders, err := h.orders.ListMyOrders(c.Request.Context(), caller, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder обрабатывает GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	details, err := h.orders.GetOrder(c.Request.Context(), caller, orderID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// StartOrder обрабатывает POST /orders/:id/start.
func (h *OrderHandler) StartOrder(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.StartOrder(c.Request.Context(), caller, orderID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder обрабатывает POST /orders/:id/cancel.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), caller, orderID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeliverOrder обрабатывает POST /orders/:id/deliver (multipart: file, note).
// Тело читается только после проверки прав. Файл сохраняется до вызова сервиса
// и удаляется, если сдача не прошла.
func (h *OrderHandler) DeliverOrder(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.orders.AuthorizeDelivery(ctx, caller, orderID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.files.MaxUploadBytes()+multipartOverhead)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.RespondBadRequest(c, "файл превышает допустимый размер")
			return
		}
		common.RespondAppError(c, service.ErrDeliverableRequired)
		return
	}

	file, err := header.Open()
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	stored, err := h.files.Save(ctx, orderID, header.Filename, file)
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		common.RespondBadRequest(c, "файл превышает допустимый размер")
		return
	case errors.Is(err, storage.ErrUnsupportedType):
		common.RespondBadRequest(c, "неподдерживаемый тип файла")
		return
	case err != nil:
		common.RespondAppError(c, apperror.Internal(err))
		return
	}

	in := service.DeliverInput{
		FileName: filepath.Base(header.Filename),
		FilePath: stored.Path,
		MimeType: stored.MimeType,
		FileSize: stored.Size,
	}
	if note, ok := c.GetPostForm("note"); ok && note != "" {
		in.Note = &note
	}

	order, deliverable, err := h.orders.DeliverOrder(ctx, caller, orderID, in)
	if err != nil {
		if delErr := h.files.Delete(ctx, stored.Path); delErr != nil {
			logger.Log.WithFields(logrus.Fields{"order_id": orderID, "path": stored.Path}).
				WithError(delErr).Warn("orders: не удалось удалить файл отклонённой сдачи")
		}
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "deliverable": deliverable})
}

// CompleteOrder обрабатывает POST /orders/:id/complete.
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req service.CompleteInput
	if !common.BindJSON(c, &req) {
		return
	}

	order, review, err := h.orders.CompleteOrder(c.Request.Context(), caller, orderID, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "review": review})
}

// RequestRevision обрабатывает POST /orders/:id/revisions.
func (h *OrderHandler) RequestRevision(c *gin.Context) {
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
		Reason string `json:"reason"`
	}
	if !common.BindJSON(c, &req) {
		return
	}

	revision, err := h.revisions.RequestRevision(c.Request.Context(), caller, orderID, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, revision)
}

// ListRevisions обрабатывает GET /orders/:id/revisions.
func (h *OrderHandler) ListRevisions(c *gin.Context) {
	caller, ok := common.MustCaller(c)
	if !ok {
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	revisions, err := h.revisions.ListRevisions(c.Request.Context(), caller, orderID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, revisions)
}
