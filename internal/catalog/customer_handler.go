package catalog

import (
	"fmt"
	"strings"

	"pdv-backend/internal/database"
	"pdv-backend/internal/models"
	"pdv-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type CustomerRequest struct {
	Name  string  `json:"name"`
	CPF   *string `json:"cpf"`
	Email string  `json:"email"`
	Phone string  `json:"phone"`
}

func validateCustomer(body *CustomerRequest) []validation.FieldError {
	var fields []validation.FieldError
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		fields = append(fields, validation.FieldError{Field: "name", Message: "obrigatório"})
	}
	if body.CPF != nil {
		trimmed := strings.TrimSpace(*body.CPF)
		if trimmed == "" {
			body.CPF = nil
		} else {
			body.CPF = &trimmed
		}
	}
	return fields
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		if fields := validateCustomer(&body); len(fields) > 0 {
			return validation.Failed(c, fields...)
		}

		if body.CPF != nil {
			var count int64
			database.DB.Model(&models.Customer{}).Where("cpf = ?", *body.CPF).Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Já existe cliente com o CPF %s", *body.CPF))
			}
		}

		customer := models.Customer{
			Name:   body.Name,
			CPF:    body.CPF,
			Email:  body.Email,
			Phone:  body.Phone,
			Status: models.StatusActive,
		}

		if err := database.DB.Create(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar o cliente")
		}

		return c.Status(fiber.StatusCreated).JSON(customer)
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado")
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		if fields := validateCustomer(&body); len(fields) > 0 {
			return validation.Failed(c, fields...)
		}

		if body.CPF != nil {
			var count int64
			database.DB.Model(&models.Customer{}).Where("cpf = ? AND id <> ?", *body.CPF, customer.ID).Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Já existe cliente com o CPF %s", *body.CPF))
			}
		}

		customer.Name = body.Name
		customer.CPF = body.CPF
		customer.Email = body.Email
		customer.Phone = body.Phone

		if err := database.DB.Save(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível atualizar o cliente")
		}

		return c.JSON(customer)
	}
}

// DELETE /api/customers/:id
func DeactivateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado")
		}

		if customer.Status == models.StatusInactive {
			return fiber.NewError(fiber.StatusConflict, "Cliente já está desativado")
		}

		customer.Status = models.StatusInactive
		if err := database.DB.Save(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível desativar o cliente")
		}

		return c.JSON(customer)
	}
}

// GET /api/customers?q=maria&status=ACTIVE
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Customer{})

		status := models.EntityStatus(c.Query("status", string(models.StatusActive)))
		if status != models.StatusActive && status != models.StatusInactive {
			return fiber.NewError(fiber.StatusBadRequest, "status inválido (ACTIVE|INACTIVE)")
		}
		dbq = dbq.Where("status = ?", status)

		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
		}

		var customers []models.Customer
		if err := dbq.Order("name ASC").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os clientes")
		}

		return c.JSON(customers)
	}
}

// GET /api/customers/:id
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado")
		}

		return c.JSON(customer)
	}
}
