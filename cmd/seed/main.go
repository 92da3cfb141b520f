package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shopvn/shopvn-backend/config"
	"github.com/shopvn/shopvn-backend/internal/app/model"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

// Seeds the product catalog from an XLSX workbook.
// Expected columns: Name | Category | Description | Image | Price | PriceBeforeDiscount | Quantity

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, err := readProductRows(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	categories := map[string]uint{}
	existing, err := categoryRepo.FindAll()
	if err != nil {
		log.Fatal("Failed to load categories:", err)
	}
	for _, c := range existing {
		categories[strings.ToLower(c.Name)] = c.ID
	}

	imported := 0
	skipped := 0
	for i, row := range rows {
		product, categoryName, err := parseProductRow(row)
		if err != nil {
			fmt.Printf("Skipping row %d: %v\n", i+2, err)
			skipped++
			continue
		}

		key := strings.ToLower(categoryName)
		categoryID, ok := categories[key]
		if !ok {
			category := &model.Category{Name: categoryName}
			if err := categoryRepo.Create(category); err != nil {
				fmt.Printf("Skipping row %d: failed to create category %q: %v\n", i+2, categoryName, err)
				skipped++
				continue
			}
			categoryID = category.ID
			categories[key] = categoryID
		}

		product.CategoryID = categoryID
		if err := productRepo.Create(product); err != nil {
			fmt.Printf("Skipping row %d: %v\n", i+2, err)
			skipped++
			continue
		}
		imported++
	}

	fmt.Printf("Done. Imported %d products, skipped %d rows.\n", imported, skipped)
}

func readProductRows(filePath string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows found in XLSX file")
	}

	// First row is the header
	return rows[1:], nil
}

func parseProductRow(row []string) (*model.Product, string, error) {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	name := get(0)
	categoryName := get(1)
	if name == "" || categoryName == "" {
		return nil, "", fmt.Errorf("missing name or category")
	}

	price, err := strconv.ParseFloat(get(4), 64)
	if err != nil || price <= 0 {
		return nil, "", fmt.Errorf("invalid price %q", get(4))
	}

	priceBefore, _ := strconv.ParseFloat(get(5), 64)
	quantity, err := strconv.Atoi(get(6))
	if err != nil || quantity < 0 {
		quantity = 0
	}

	return &model.Product{
		Name:                name,
		Description:         get(2),
		Image:               get(3),
		Price:               price,
		PriceBeforeDiscount: priceBefore,
		Quantity:            quantity,
	}, categoryName, nil
}
