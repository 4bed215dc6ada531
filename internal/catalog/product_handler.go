package catalog

import (
	"fmt"
	"strings"

	"pdv-backend/internal/audit"
	"pdv-backend/internal/auth"
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"
	"pdv-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	Code      string          `json:"code"`
	Barcode   *string         `json:"barcode"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	CostPrice decimal.Decimal `json:"cost_price"`
	SalePrice decimal.Decimal `json:"sale_price"`
	MinStock  int             `json:"min_stock"`
}

func validateProduct(body *ProductRequest) []validation.FieldError {
	var fields []validation.FieldError
	body.Code = strings.TrimSpace(body.Code)
	body.Name = strings.TrimSpace(body.Name)
	body.Category = strings.TrimSpace(body.Category)

	if body.Code == "" {
		fields = append(fields, validation.FieldError{Field: "code", Message: "obrigatório"})
	}
	if body.Name == "" {
		fields = append(fields, validation.FieldError{Field: "name", Message: "obrigatório"})
	}
	if body.Category == "" {
		fields = append(fields, validation.FieldError{Field: "category", Message: "obrigatório"})
	}
	if body.SalePrice.IsNegative() || body.SalePrice.IsZero() {
		fields = append(fields, validation.FieldError{Field: "sale_price", Message: "deve ser maior que zero"})
	}
	if body.CostPrice.IsNegative() {
		fields = append(fields, validation.FieldError{Field: "cost_price", Message: "não pode ser negativo"})
	}
	if body.MinStock < 0 {
		fields = append(fields, validation.FieldError{Field: "min_stock", Message: "não pode ser negativo"})
	}
	if body.Barcode != nil {
		trimmed := strings.TrimSpace(*body.Barcode)
		if trimmed == "" {
			body.Barcode = nil
		} else {
			body.Barcode = &trimmed
		}
	}
	return fields
}

// POST /api/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		if fields := validateProduct(&body); len(fields) > 0 {
			return validation.Failed(c, fields...)
		}

		var count int64
		database.DB.Model(&models.Product{}).Where("code = ?", body.Code).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Já existe produto com o código %s", body.Code))
		}
		if body.Barcode != nil {
			database.DB.Model(&models.Product{}).Where("barcode = ?", *body.Barcode).Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Já existe produto com o código de barras %s", *body.Barcode))
			}
		}

		product := models.Product{
			Code:      body.Code,
			Barcode:   body.Barcode,
			Name:      body.Name,
			Category:  body.Category,
			CostPrice: body.CostPrice,
			SalePrice: body.SalePrice,
			MinStock:  body.MinStock,
			Status:    models.StatusActive,
		}

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar o produto")
		}

		return c.Status(fiber.StatusCreated).JSON(product)
	}
}

// PUT /api/products/:id
// Estoque não entra aqui: só muda via movimentação ou venda.
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var product models.Product
		if err := database.DB.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Produto não encontrado")
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		if fields := validateProduct(&body); len(fields) > 0 {
			return validation.Failed(c, fields...)
		}

		var count int64
		database.DB.Model(&models.Product{}).Where("code = ? AND id <> ?", body.Code, product.ID).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Já existe produto com o código %s", body.Code))
		}
		if body.Barcode != nil {
			database.DB.Model(&models.Product{}).Where("barcode = ? AND id <> ?", *body.Barcode, product.ID).Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Já existe produto com o código de barras %s", *body.Barcode))
			}
		}

		product.Code = body.Code
		product.Barcode = body.Barcode
		product.Name = body.Name
		product.Category = body.Category
		product.CostPrice = body.CostPrice
		product.SalePrice = body.SalePrice
		product.MinStock = body.MinStock

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível atualizar o produto")
		}

		return c.JSON(product)
	}
}

// DELETE /api/products/:id
// Desativação, nunca remoção física: vendas antigas continuam referenciando.
func DeactivateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var product models.Product
		if err := database.DB.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Produto não encontrado")
		}

		if product.Status == models.StatusInactive {
			return fiber.NewError(fiber.StatusConflict, "Produto já está desativado")
		}

		before := product
		product.Status = models.StatusInactive
		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível desativar o produto")
		}

		if empID, empName, err := employeeInfo(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				EmployeeID:   empID,
				EmployeeName: empName,
				EntityType:   "product",
				EntityID:     product.ID,
				Action:       models.AuditActionUpdate,
				Description:  fmt.Sprintf("Produto desativado: %s", product.Name),
				Before:       before,
				After:        product,
			})
		}

		return c.JSON(product)
	}
}

// GET /api/products?q=café&category=bebidas&status=INACTIVE
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{})

		status := models.EntityStatus(c.Query("status", string(models.StatusActive)))
		if status != models.StatusActive && status != models.StatusInactive {
			return fiber.NewError(fiber.StatusBadRequest, "status inválido (ACTIVE|INACTIVE)")
		}
		dbq = dbq.Where("status = ?", status)

		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
		}
		if cat := c.Query("category"); cat != "" {
			dbq = dbq.Where("category = ?", cat)
		}

		var products []models.Product
		if err := dbq.Order("name ASC").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os produtos")
		}

		return c.JSON(products)
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var product models.Product
		if err := database.DB.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Produto não encontrado")
		}

		return c.JSON(product)
	}
}

// GET /api/products/barcode/:code
// Consulta do leitor no balcão: só produtos ativos.
func GetProductByBarcodeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Params("code")
		if code == "" {
			return fiber.NewError(fiber.StatusBadRequest, "código de barras obrigatório")
		}

		var product models.Product
		if err := database.DB.
			Where("barcode = ? AND status = ?", code, models.StatusActive).
			First(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Produto não encontrado")
		}

		return c.JSON(product)
	}
}

// Auxiliar: id e nome do funcionário autenticado, para o audit log.
func employeeInfo(c *fiber.Ctx) (uint, string, error) {
	empID, err := auth.EmployeeID(c)
	if err != nil {
		return 0, "", err
	}
	var emp models.Employee
	if err := database.DB.First(&emp, empID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "Funcionário não encontrado")
	}
	return empID, emp.Name, nil
}
