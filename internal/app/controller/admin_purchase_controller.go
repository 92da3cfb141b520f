package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/internal/app/service"
	apperrors "github.com/shopvn/shopvn-backend/internal/errors"
	"github.com/shopvn/shopvn-backend/internal/middleware"
)

type AdminPurchaseController struct {
	orderService  service.OrderService
	reportService service.ReportService
}

func NewAdminPurchaseController(
	orderService service.OrderService,
	reportService service.ReportService,
) *AdminPurchaseController {
	return &AdminPurchaseController{
		orderService:  orderService,
		reportService: reportService,
	}
}

type UpdateStatusRequest struct {
	Status *int `json:"status" binding:"required"`
}

func adminFilterFromQuery(c *gin.Context) (repository.AdminPurchaseFilter, int, int, error) {
	filter := repository.AdminPurchaseFilter{
		Search: c.Query("search"),
	}

	if statusParam := c.Query("status"); statusParam != "" {
		value, err := strconv.Atoi(statusParam)
		if err != nil {
			return filter, 0, 0, err
		}
		status := model.PurchaseStatus(value)
		if status != model.StatusAll && !status.Valid() {
			return filter, 0, 0, errors.New("invalid status")
		}
		filter.Status = &status
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	filter.Limit = limit
	filter.Offset = (page - 1) * limit
	return filter, page, limit, nil
}

// List returns purchases for the back office
// GET /api/admin/purchases?page=&limit=&status=&search=
func (ctrl *AdminPurchaseController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter, page, limit, err := adminFilterFromQuery(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.PurchaseInvalidStatus, "Invalid status value")
		return
	}

	purchases, total, err := ctrl.orderService.ListPurchases(filter)
	if err != nil {
		log.Error("Failed to list purchases", err)
		apperrors.InternalError(c, "")
		return
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	c.JSON(http.StatusOK, gin.H{
		"message": "Purchases fetched",
		"data": gin.H{
			"purchases":   purchases,
			"total":       total,
			"page":        page,
			"limit":       limit,
			"total_pages": totalPages,
		},
	})
}

// Get returns one purchase
// GET /api/admin/purchases/:id
func (ctrl *AdminPurchaseController) Get(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid purchase id")
		return
	}

	purchase, err := ctrl.orderService.GetPurchase(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrPurchaseNotFound) {
			apperrors.NotFound(c, apperrors.PurchaseNotFound, "Purchase not found")
			return
		}
		log.Error("Failed to fetch purchase", err, map[string]interface{}{
			"purchase_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchase fetched",
		"data":    purchase,
	})
}

// UpdateStatus advances a purchase through its lifecycle
// PUT /api/admin/purchases/status/:id
func (ctrl *AdminPurchaseController) UpdateStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid purchase id")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	purchase, err := ctrl.orderService.AdvanceStatus(uint(id), model.PurchaseStatus(*req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPurchaseNotFound):
			apperrors.NotFound(c, apperrors.PurchaseNotFound, "Purchase not found")
		case errors.Is(err, service.ErrInvalidTransition):
			apperrors.BadRequest(c, apperrors.PurchaseInvalidTransition, "Status transition not allowed")
		case errors.Is(err, service.ErrStockExceeded):
			apperrors.BadRequest(c, apperrors.PurchaseStockExceeded, "Delivery would exceed available stock")
		default:
			log.Error("Failed to advance purchase status", err, map[string]interface{}{
				"purchase_id": id,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchase status updated",
		"data":    purchase,
	})
}

// Delete removes a purchase record
// DELETE /api/admin/purchases/:id
func (ctrl *AdminPurchaseController) Delete(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid purchase id")
		return
	}

	if err := ctrl.orderService.DeletePurchase(uint(id)); err != nil {
		if errors.Is(err, service.ErrPurchaseNotFound) {
			apperrors.NotFound(c, apperrors.PurchaseNotFound, "Purchase not found")
			return
		}
		log.Error("Failed to delete purchase", err, map[string]interface{}{
			"purchase_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchase deleted",
	})
}

// Export streams the filtered purchases as an XLSX workbook
// GET /api/admin/purchases/export?status=&search=
func (ctrl *AdminPurchaseController) Export(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter, _, _, err := adminFilterFromQuery(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.PurchaseInvalidStatus, "Invalid status value")
		return
	}

	file, fileName, err := ctrl.reportService.ExportPurchases(filter)
	if err != nil {
		log.Error("Failed to export purchases", err)
		apperrors.InternalError(c, "")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := file.Write(c.Writer); err != nil {
		log.Error("Failed to write XLSX response", err)
	}
}
