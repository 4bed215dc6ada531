package validation

import "github.com/gofiber/fiber/v2"

// FieldError: detalhe de validação por campo, devolvido em lote.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Failed encerra a requisição com 400 e a lista de erros de campo.
func Failed(c *fiber.Ctx, fields ...FieldError) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "Validação falhou",
		"fields": fields,
	})
}
