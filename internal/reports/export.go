package reports

import (
	"fmt"

	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// GET /api/reports/sales/export?from=2026-08-01&to=2026-08-31
// Planilha com uma linha por venda do período, para conferência contábil.
func ExportSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := parsePeriod(c)
		if err != nil {
			return err
		}

		var sales []models.Sale
		if err := database.DB.
			Where("created_at >= ? AND created_at < ?", from, to.AddDate(0, 0, 1)).
			Order("number ASC").
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível carregar as vendas")
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Vendas"
		f.SetSheetName("Sheet1", sheet)

		headers := []string{"Número", "Data", "Subtotal", "Desconto", "Total", "Pagamento", "Status"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for i, s := range sales {
			row := i + 2
			values := []any{
				s.Number,
				s.CreatedAt.Format("2006-01-02 15:04:05"),
				s.Subtotal.InexactFloat64(),
				s.Discount.InexactFloat64(),
				s.Total.InexactFloat64(),
				string(s.PaymentMethod),
				string(s.Status),
			}
			for j, v := range values {
				cell, _ := excelize.CoordinatesToCellName(j+1, row)
				f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível gerar a planilha")
		}

		filename := fmt.Sprintf("vendas_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
		return c.Send(buf.Bytes())
	}
}
