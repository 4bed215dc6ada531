package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pdv-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Colunas aceitas no CSV. name, category e sale_price são obrigatórias;
// o resto assume default quando ausente.
var importColumns = map[string]bool{
	"code": true, "barcode": true, "name": true, "category": true,
	"cost_price": true, "sale_price": true, "stock": true, "min_stock": true,
}

type importRow struct {
	line   int
	values map[string]string
}

type ImportResult struct {
	RowCount     int
	SuccessCount int
	Errors       []models.ImportRowError
}

// ImportProducts lê o CSV e cria os produtos um a um. Linha com problema é
// pulada e registrada; as demais seguem. Estoque inicial vira movimentação
// IN para manter o ledger como única origem do contador de estoque.
func ImportProducts(db *gorm.DB, r io.Reader, employeeID uint) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("não foi possível ler o cabeçalho: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if importColumns[name] {
			colIndex[name] = i
		}
	}
	for _, required := range []string{"name", "category", "sale_price"} {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("coluna obrigatória ausente no cabeçalho: %s", required)
		}
	}

	result := &ImportResult{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.RowCount++
			result.Errors = append(result.Errors, models.ImportRowError{Row: line, Message: "linha CSV malformada"})
			continue
		}

		result.RowCount++
		row := importRow{line: line, values: make(map[string]string)}
		for name, idx := range colIndex {
			if idx < len(record) {
				row.values[name] = strings.TrimSpace(record[idx])
			}
		}

		if msg := importOne(db, row, employeeID); msg != "" {
			result.Errors = append(result.Errors, models.ImportRowError{Row: line, Message: msg})
			continue
		}
		result.SuccessCount++
	}

	return result, nil
}

// importOne valida e grava uma linha; devolve a mensagem de erro ("" = ok).
func importOne(db *gorm.DB, row importRow, employeeID uint) string {
	name := row.values["name"]
	category := row.values["category"]
	if name == "" {
		return "name vazio"
	}
	if category == "" {
		return "category vazio"
	}

	salePrice, err := decimal.NewFromString(row.values["sale_price"])
	if err != nil || salePrice.IsNegative() || salePrice.IsZero() {
		return fmt.Sprintf("sale_price inválido: %q", row.values["sale_price"])
	}

	costPrice := decimal.Zero
	if v := row.values["cost_price"]; v != "" {
		costPrice, err = decimal.NewFromString(v)
		if err != nil || costPrice.IsNegative() {
			return fmt.Sprintf("cost_price inválido: %q", v)
		}
	}

	stock := 0
	if v := row.values["stock"]; v != "" {
		stock, err = strconv.Atoi(v)
		if err != nil || stock < 0 {
			return fmt.Sprintf("stock inválido: %q", v)
		}
	}

	minStock := 0
	if v := row.values["min_stock"]; v != "" {
		minStock, err = strconv.Atoi(v)
		if err != nil || minStock < 0 {
			return fmt.Sprintf("min_stock inválido: %q", v)
		}
	}

	code := row.values["code"]
	if code == "" {
		code = generatedCode(db)
	} else {
		var count int64
		db.Model(&models.Product{}).Where("code = ?", code).Count(&count)
		if count > 0 {
			return fmt.Sprintf("código duplicado: %s", code)
		}
	}

	var barcode *string
	if v := row.values["barcode"]; v != "" {
		var count int64
		db.Model(&models.Product{}).Where("barcode = ?", v).Count(&count)
		if count > 0 {
			return fmt.Sprintf("código de barras duplicado: %s", v)
		}
		barcode = &v
	}

	product := models.Product{
		Code:      code,
		Barcode:   barcode,
		Name:      name,
		Category:  category,
		CostPrice: costPrice,
		SalePrice: salePrice,
		Stock:     stock,
		MinStock:  minStock,
		Status:    models.StatusActive,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		if stock > 0 {
			movement := models.StockMovement{
				ProductID:  product.ID,
				Kind:       models.MovementIn,
				Quantity:   stock,
				Reason:     "estoque inicial (importação CSV)",
				EmployeeID: employeeID,
			}
			if err := tx.Create(&movement).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "não foi possível gravar o produto"
	}
	return ""
}

// generatedCode: próximo código PRD-N quando a linha não traz um.
func generatedCode(db *gorm.DB) string {
	var count int64
	db.Model(&models.Product{}).Count(&count)
	for {
		count++
		code := fmt.Sprintf("PRD-%04d", count)
		var exists int64
		db.Model(&models.Product{}).Where("code = ?", code).Count(&exists)
		if exists == 0 {
			return code
		}
	}
}
