package admin

import (
	"fmt"
	"strings"

	"pdv-backend/internal/audit"
	"pdv-backend/internal/auth"
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"
	"pdv-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type EmployeeRequest struct {
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Password string              `json:"password"`
	Role     models.EmployeeRole `json:"role"`
}

// POST /api/admin/employees
func CreateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body EmployeeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var fields []validation.FieldError
		if strings.TrimSpace(body.Name) == "" {
			fields = append(fields, validation.FieldError{Field: "name", Message: "obrigatório"})
		}
		if body.Email == "" {
			fields = append(fields, validation.FieldError{Field: "email", Message: "obrigatório"})
		}
		if len(body.Password) < 8 {
			fields = append(fields, validation.FieldError{Field: "password", Message: "mínimo de 8 caracteres"})
		}
		if body.Role != models.RoleAdmin && body.Role != models.RoleCashier {
			fields = append(fields, validation.FieldError{Field: "role", Message: "papel inválido (admin|cashier)"})
		}
		if len(fields) > 0 {
			return validation.Failed(c, fields...)
		}

		var count int64
		database.DB.Model(&models.Employee{}).Where("email = ?", body.Email).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Já existe funcionário com esse email")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível gerar o hash da senha")
		}

		emp := models.Employee{
			Name:         strings.TrimSpace(body.Name),
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         body.Role,
			Status:       models.StatusActive,
		}

		if err := database.DB.Create(&emp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar o funcionário")
		}

		return c.Status(fiber.StatusCreated).JSON(emp)
	}
}

// GET /api/admin/employees?status=ACTIVE
func ListEmployeesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Employee{})

		if status := c.Query("status"); status != "" {
			st := models.EntityStatus(status)
			if st != models.StatusActive && st != models.StatusInactive {
				return fiber.NewError(fiber.StatusBadRequest, "status inválido (ACTIVE|INACTIVE)")
			}
			dbq = dbq.Where("status = ?", st)
		}

		var emps []models.Employee
		if err := dbq.Order("name ASC").Find(&emps).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os funcionários")
		}

		return c.JSON(emps)
	}
}

// GET /api/admin/employees/:id
func GetEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var emp models.Employee
		if err := database.DB.First(&emp, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Funcionário não encontrado")
		}

		return c.JSON(emp)
	}
}

// PUT /api/admin/employees/:id
// Senha só muda quando o campo vem preenchido.
func UpdateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var emp models.Employee
		if err := database.DB.First(&emp, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Funcionário não encontrado")
		}

		var body EmployeeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if strings.TrimSpace(body.Name) == "" || body.Email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nome e email são obrigatórios")
		}
		if body.Role != models.RoleAdmin && body.Role != models.RoleCashier {
			return fiber.NewError(fiber.StatusBadRequest, "Papel inválido (admin|cashier)")
		}

		var count int64
		database.DB.Model(&models.Employee{}).Where("email = ? AND id <> ?", body.Email, emp.ID).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Já existe funcionário com esse email")
		}

		emp.Name = strings.TrimSpace(body.Name)
		emp.Email = body.Email
		emp.Role = body.Role

		if body.Password != "" {
			if len(body.Password) < 8 {
				return fiber.NewError(fiber.StatusBadRequest, "Senha precisa de pelo menos 8 caracteres")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível gerar o hash da senha")
			}
			emp.PasswordHash = string(hash)
		}

		if err := database.DB.Save(&emp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível atualizar o funcionário")
		}

		return c.JSON(emp)
	}
}

// DELETE /api/admin/employees/:id
// Desativação com audit: o histórico (vendas, caixas) continua apontando
// para o registro.
func DeactivateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id inválido")
		}

		var emp models.Employee
		if err := database.DB.First(&emp, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Funcionário não encontrado")
		}

		if emp.Status == models.StatusInactive {
			return fiber.NewError(fiber.StatusConflict, "Funcionário já está desativado")
		}

		actorID, err := auth.EmployeeID(c)
		if err != nil {
			return err
		}
		if actorID == emp.ID {
			return fiber.NewError(fiber.StatusConflict, "Você não pode desativar a si mesmo")
		}

		emp.Status = models.StatusInactive
		if err := database.DB.Save(&emp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível desativar o funcionário")
		}

		var actor models.Employee
		if err := database.DB.First(&actor, actorID).Error; err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				EmployeeID:   actorID,
				EmployeeName: actor.Name,
				EntityType:   "employee",
				EntityID:     emp.ID,
				Action:       models.AuditActionUpdate,
				Description:  fmt.Sprintf("Funcionário desativado: %s", emp.Name),
				After:        fiber.Map{"status": emp.Status},
			})
		}

		return c.JSON(emp)
	}
}
