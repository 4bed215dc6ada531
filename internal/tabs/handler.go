package tabs

import (
	"fmt"

	"pdv-backend/internal/auth"
	"pdv-backend/internal/database"
	"pdv-backend/internal/loyalty"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateTabRequest struct {
	Label      string `json:"label"`
	CustomerID *uint  `json:"customer_id"`
}

type AddItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type DiscountRequest struct {
	Discount decimal.Decimal `json:"discount"`
}

type CloseTabRequest struct {
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

// recomputeTotals refaz subtotal e total a partir do conjunto completo de
// itens. Nada de contador incremental: recalcular sempre evita drift.
func recomputeTotals(tx *gorm.DB, tab *models.Tab) error {
	var items []models.TabItem
	if err := tx.Where("tab_id = ?", tab.ID).Find(&items).Error; err != nil {
		return err
	}

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal)
	}

	tab.Subtotal = subtotal
	if tab.Discount.GreaterThan(subtotal) {
		tab.Discount = subtotal
	}
	tab.Total = subtotal.Sub(tab.Discount)
	tab.Items = items

	return tx.Model(&models.Tab{}).Where("id = ?", tab.ID).
		Updates(map[string]any{"subtotal": tab.Subtotal, "discount": tab.Discount, "total": tab.Total}).Error
}

func loadTab(id int) (*models.Tab, error) {
	if id <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "id inválido")
	}
	var tab models.Tab
	if err := database.DB.Preload("Items").First(&tab, id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Comanda não encontrada")
	}
	return &tab, nil
}

// POST /api/tabs
func CreateTabHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTabRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if body.Label == "" {
			return fiber.NewError(fiber.StatusBadRequest, "label obrigatório")
		}

		empID, err := auth.EmployeeID(c)
		if err != nil {
			return err
		}

		if body.CustomerID != nil {
			var customer models.Customer
			if err := database.DB.First(&customer, "id = ? AND status = ?", *body.CustomerID, models.StatusActive).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Cliente não encontrado")
			}
		}

		tab := models.Tab{
			Label:      body.Label,
			CustomerID: body.CustomerID,
			EmployeeID: empID,
			Subtotal:   decimal.Zero,
			Discount:   decimal.Zero,
			Total:      decimal.Zero,
			Status:     models.TabOpen,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			number, err := database.NextNumber(tx, models.CounterTabNumber)
			if err != nil {
				return err
			}
			tab.Number = number
			return tx.Create(&tab).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível abrir a comanda")
		}

		return c.Status(fiber.StatusCreated).JSON(tab)
	}
}

// GET /api/tabs?status=OPEN
func ListTabsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Tab{}).Preload("Items")

		status := c.Query("status", string(models.TabOpen))
		switch models.TabStatus(status) {
		case models.TabOpen, models.TabClosed, models.TabCancelled:
			dbq = dbq.Where("status = ?", status)
		default:
			return fiber.NewError(fiber.StatusBadRequest, "status inválido (OPEN|CLOSED|CANCELLED)")
		}

		var tabs []models.Tab
		if err := dbq.Order("number DESC").Find(&tabs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar as comandas")
		}

		return c.JSON(tabs)
	}
}

// GET /api/tabs/:id
func GetTabHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		tab, err := loadTab(id)
		if err != nil {
			return err
		}
		return c.JSON(tab)
	}
}

// POST /api/tabs/:id/items
// O preço unitário é congelado no momento da inclusão; linha existente do
// mesmo produto recebe a quantidade somada mantendo o preço original.
func AddItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		tab, err := loadTab(id)
		if err != nil {
			return err
		}
		if tab.Status != models.TabOpen {
			return fiber.NewError(fiber.StatusConflict, "Comanda não está aberta")
		}

		var body AddItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if body.ProductID == 0 || body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id e quantity positivos são obrigatórios")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ? AND status = ?", body.ProductID, models.StatusActive).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Produto não encontrado")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var existing models.TabItem
			found := tx.Where("tab_id = ? AND product_id = ?", tab.ID, product.ID).First(&existing).Error == nil
			if found {
				existing.Quantity += body.Quantity
				existing.LineTotal = existing.UnitPrice.Mul(decimal.NewFromInt(int64(existing.Quantity)))
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
			} else {
				item := models.TabItem{
					TabID:     tab.ID,
					ProductID: product.ID,
					Quantity:  body.Quantity,
					UnitPrice: product.SalePrice,
					LineTotal: product.SalePrice.Mul(decimal.NewFromInt(int64(body.Quantity))),
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
			}
			return recomputeTotals(tx, tab)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível adicionar o item")
		}

		return c.JSON(tab)
	}
}

// DELETE /api/tabs/:id/items/:itemId
func RemoveItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		tab, err := loadTab(id)
		if err != nil {
			return err
		}
		if tab.Status != models.TabOpen {
			return fiber.NewError(fiber.StatusConflict, "Comanda não está aberta")
		}

		itemID, err := c.ParamsInt("itemId")
		if err != nil || itemID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "itemId inválido")
		}

		var item models.TabItem
		if err := database.DB.First(&item, "id = ? AND tab_id = ?", itemID, tab.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Item não encontrado nesta comanda")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&item).Error; err != nil {
				return err
			}
			return recomputeTotals(tx, tab)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível remover o item")
		}

		return c.JSON(tab)
	}
}

// PUT /api/tabs/:id/discount
func SetDiscountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		tab, err := loadTab(id)
		if err != nil {
			return err
		}
		if tab.Status != models.TabOpen {
			return fiber.NewError(fiber.StatusConflict, "Comanda não está aberta")
		}

		var body DiscountRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if body.Discount.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "Desconto não pode ser negativo")
		}
		if body.Discount.GreaterThan(tab.Subtotal) {
			return fiber.NewError(fiber.StatusBadRequest, "Desconto maior que o subtotal")
		}

		tab.Discount = body.Discount
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Tab{}).Where("id = ?", tab.ID).
				Update("discount", body.Discount).Error; err != nil {
				return err
			}
			return recomputeTotals(tx, tab)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível aplicar o desconto")
		}

		return c.JSON(tab)
	}
}

// POST /api/tabs/:id/cancel
func CancelTabHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		tab, err := loadTab(id)
		if err != nil {
			return err
		}
		if tab.Status != models.TabOpen {
			return fiber.NewError(fiber.StatusConflict, "Comanda não está aberta")
		}

		res := database.DB.Model(&models.Tab{}).
			Where("id = ? AND status = ?", tab.ID, models.TabOpen).
			Update("status", models.TabCancelled)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível cancelar a comanda")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "Comanda não está aberta")
		}
		tab.Status = models.TabCancelled

		return c.JSON(tab)
	}
}

// POST /api/tabs/:id/close
// Converte a comanda em venda: número novo, linhas copiadas com os preços
// congelados, baixa de estoque com movimentação OUT por linha apontando
// para venda e comanda, comanda CLOSED ligada à venda. Uma transação só;
// estoque insuficiente em qualquer linha aborta tudo.
func CloseTabHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		tab, err := loadTab(id)
		if err != nil {
			return err
		}
		if tab.Status != models.TabOpen {
			return fiber.NewError(fiber.StatusConflict, "Comanda não está aberta")
		}
		if len(tab.Items) == 0 {
			return fiber.NewError(fiber.StatusConflict, "Comanda sem itens não pode ser fechada")
		}

		var body CloseTabRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if !models.ValidPaymentMethod(body.PaymentMethod) {
			return fiber.NewError(fiber.StatusBadRequest, "payment_method inválido (DINHEIRO|CARTAO_CREDITO|CARTAO_DEBITO|PIX)")
		}

		empID, err := auth.EmployeeID(c)
		if err != nil {
			return err
		}

		sale := models.Sale{
			CustomerID:    tab.CustomerID,
			EmployeeID:    empID,
			Subtotal:      tab.Subtotal,
			Discount:      tab.Discount,
			Total:         tab.Total,
			PaymentMethod: body.PaymentMethod,
			Status:        models.SaleCompleted,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			number, err := database.NextNumber(tx, models.CounterSaleNumber)
			if err != nil {
				return err
			}
			sale.Number = number

			if err := tx.Create(&sale).Error; err != nil {
				return err
			}

			for _, it := range tab.Items {
				saleItem := models.SaleItem{
					SaleID:    sale.ID,
					ProductID: it.ProductID,
					Quantity:  it.Quantity,
					UnitPrice: it.UnitPrice,
					LineTotal: it.LineTotal,
				}
				if err := tx.Create(&saleItem).Error; err != nil {
					return err
				}

				res := tx.Model(&models.Product{}).
					Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
					Update("stock", gorm.Expr("stock - ?", it.Quantity))
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return fiber.NewError(fiber.StatusConflict,
						fmt.Sprintf("Estoque insuficiente para o produto %d", it.ProductID))
				}

				movement := models.StockMovement{
					ProductID:  it.ProductID,
					Kind:       models.MovementOut,
					Quantity:   it.Quantity,
					Reason:     fmt.Sprintf("venda #%d (comanda #%d)", sale.Number, tab.Number),
					EmployeeID: empID,
					SaleID:     &sale.ID,
					TabID:      &tab.ID,
				}
				if err := tx.Create(&movement).Error; err != nil {
					return err
				}
			}

			if tab.CustomerID != nil {
				if err := loyalty.Accrue(tx, *tab.CustomerID, &sale); err != nil {
					return err
				}
			}

			// Condicional no status: dois fechamentos concorrentes passariam
			// pela checagem inicial, mas só um converte a comanda em venda.
			res := tx.Model(&models.Tab{}).
				Where("id = ? AND status = ?", tab.ID, models.TabOpen).
				Updates(map[string]any{"status": models.TabClosed, "sale_id": sale.ID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusConflict, "Comanda não está aberta")
			}
			return nil
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível fechar a comanda")
		}

		tab.Status = models.TabClosed
		tab.SaleID = &sale.ID

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"tab":  tab,
			"sale": sale,
		})
	}
}
