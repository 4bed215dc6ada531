package catalog

import (
	"fmt"

	"pdv-backend/internal/audit"
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// POST /api/products/import (multipart, campo "file")
func ImportProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		empID, empName, err := employeeInfo(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Arquivo CSV não enviado (campo 'file')")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Não foi possível abrir o arquivo")
		}
		defer file.Close()

		result, err := ImportProducts(database.DB, file, empID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		run := models.ImportRun{
			Filename:     fileHeader.Filename,
			EmployeeID:   empID,
			RowCount:     result.RowCount,
			SuccessCount: result.SuccessCount,
			ErrorCount:   len(result.Errors),
			Errors:       result.Errors,
		}
		if err := database.DB.Create(&run).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível gravar o resumo da importação")
		}

		_ = audit.WriteLog(audit.LogOptions{
			EmployeeID:   empID,
			EmployeeName: empName,
			EntityType:   "import_run",
			EntityID:     run.ID,
			Action:       models.AuditActionCreate,
			Description:  fmt.Sprintf("Importação CSV: %s (%d linhas, %d ok, %d erros)", run.Filename, run.RowCount, run.SuccessCount, run.ErrorCount),
			After:        fiber.Map{"row_count": run.RowCount, "success_count": run.SuccessCount, "error_count": run.ErrorCount},
		})

		return c.Status(fiber.StatusCreated).JSON(run)
	}
}

// GET /api/product-imports
func ListImportRunsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var runs []models.ImportRun
		if err := database.DB.
			Preload("Errors").
			Order("created_at DESC").
			Limit(100).
			Find(&runs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as importações")
		}
		return c.JSON(runs)
	}
}
