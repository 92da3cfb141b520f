package service

import (
	"fmt"
	"time"

	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

type ReportService interface {
	ExportPurchases(filter repository.AdminPurchaseFilter) (*excelize.File, string, error)
}

type reportService struct {
	purchaseRepo repository.PurchaseRepository
}

func NewReportService(purchaseRepo repository.PurchaseRepository) ReportService {
	return &reportService{purchaseRepo: purchaseRepo}
}

var statusLabels = map[model.PurchaseStatus]string{
	model.StatusWaitConfirmation: "Wait confirmation",
	model.StatusWaitGetting:      "Wait getting",
	model.StatusInProgress:       "In progress",
	model.StatusDelivered:        "Delivered",
	model.StatusCancelled:        "Cancelled",
}

var payMethodLabels = map[model.PayMethod]string{
	model.PayMethodCash:  "Cash",
	model.PayMethodVNPay: "VNPay",
}

// ExportPurchases builds an XLSX workbook of every purchase matching the
// filter. Returns the workbook and a suggested file name.
func (s *reportService) ExportPurchases(filter repository.AdminPurchaseFilter) (*excelize.File, string, error) {
	logger.Info("Exporting purchases to XLSX", map[string]interface{}{
		"search": filter.Search,
	})

	// Export ignores pagination
	filter.Limit = 0
	filter.Offset = 0

	purchases, total, err := s.purchaseRepo.FindAllAdmin(filter)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	const sheet = "Purchases"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"ID", "Order ID", "User", "Product", "Quantity",
		"Unit Price", "Total", "Status", "Pay Method", "Paid", "Created At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", err
		}
	}

	for row, p := range purchases {
		paid := "No"
		if p.PaymentStatus == model.PaymentPaid {
			paid = "Yes"
		}
		values := []interface{}{
			p.ID,
			p.OrderID,
			p.User.Email,
			p.Product.Name,
			p.BuyCount,
			p.Price,
			p.Price * float64(p.BuyCount),
			statusLabels[p.Status],
			payMethodLabels[p.PayMethod],
			paid,
			p.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", err
			}
		}
	}

	fileName := fmt.Sprintf("purchases-%s.xlsx", time.Now().Format("20060102-150405"))

	logger.Info("Purchases exported", map[string]interface{}{
		"count":     len(purchases),
		"total":     total,
		"file_name": fileName,
	})
	return f, fileName, nil
}
