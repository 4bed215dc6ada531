package main

import (
	"log"
	"strings"

	"pdv-backend/internal/admin"
	"pdv-backend/internal/audit"
	"pdv-backend/internal/auth"
	"pdv-backend/internal/cashier"
	"pdv-backend/internal/catalog"
	"pdv-backend/internal/config"
	"pdv-backend/internal/database"
	"pdv-backend/internal/loyalty"
	"pdv-backend/internal/models"
	"pdv-backend/internal/payment"
	"pdv-backend/internal/reports"
	"pdv-backend/internal/sales"
	"pdv-backend/internal/stock"
	"pdv-backend/internal/tabs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Erro inesperado:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Erro interno do servidor",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Público
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Autenticado
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Rotas de administrador
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Funcionários
	adminRoutes.Post("/employees", admin.CreateEmployeeHandler())
	adminRoutes.Get("/employees", admin.ListEmployeesHandler())
	adminRoutes.Get("/employees/:id", admin.GetEmployeeHandler())
	adminRoutes.Put("/employees/:id", admin.UpdateEmployeeHandler())
	adminRoutes.Delete("/employees/:id", admin.DeactivateEmployeeHandler())

	// Escritas de catálogo só para admin
	adminRoutes.Post("/products", catalog.CreateProductHandler())
	adminRoutes.Put("/products/:id", catalog.UpdateProductHandler())
	adminRoutes.Delete("/products/:id", catalog.DeactivateProductHandler())
	adminRoutes.Post("/products/import", catalog.ImportProductsHandler())
	adminRoutes.Get("/product-imports", catalog.ListImportRunsHandler())

	// Relatórios gerenciais
	adminRoutes.Get("/reports/sales/period", reports.PeriodSalesHandler())
	adminRoutes.Get("/reports/top-products", reports.TopProductsHandler())
	adminRoutes.Get("/reports/sales/export", reports.ExportSalesHandler())

	// Trilha de auditoria
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())

	// Histórico de caixas
	adminRoutes.Get("/cash-sessions", cashier.ListSessionsHandler())

	// Catálogo (leitura para todo operador)
	protected.Get("/products", catalog.ListProductsHandler())
	protected.Get("/products/barcode/:code", catalog.GetProductByBarcodeHandler())
	protected.Get("/products/:id", catalog.GetProductHandler())

	// Clientes
	protected.Post("/customers", catalog.CreateCustomerHandler())
	protected.Get("/customers", catalog.ListCustomersHandler())
	protected.Get("/customers/:id", catalog.GetCustomerHandler())
	protected.Put("/customers/:id", catalog.UpdateCustomerHandler())
	protected.Delete("/customers/:id", catalog.DeactivateCustomerHandler())

	// Fidelidade
	protected.Get("/customers/:id/loyalty", loyalty.GetLoyaltyHandler())
	protected.Post("/customers/:id/loyalty/redeem", loyalty.RedeemHandler())

	// Estoque
	protected.Post("/stock-movements/entry", stock.CreateEntryHandler())
	protected.Post("/stock-movements/exit", stock.CreateExitHandler())
	protected.Post("/stock-movements/adjust", stock.CreateAdjustHandler())
	protected.Get("/stock-movements", stock.ListMovementsHandler())

	// Vendas
	protected.Post("/sales", sales.CreateSaleHandler())
	protected.Get("/sales", sales.ListSalesHandler())
	protected.Get("/sales/:id", sales.GetSaleHandler())
	protected.Post("/sales/:id/cancel", sales.CancelSaleHandler())

	// Comandas
	protected.Post("/tabs", tabs.CreateTabHandler())
	protected.Get("/tabs", tabs.ListTabsHandler())
	protected.Get("/tabs/:id", tabs.GetTabHandler())
	protected.Post("/tabs/:id/items", tabs.AddItemHandler())
	protected.Delete("/tabs/:id/items/:itemId", tabs.RemoveItemHandler())
	protected.Put("/tabs/:id/discount", tabs.SetDiscountHandler())
	protected.Post("/tabs/:id/cancel", tabs.CancelTabHandler())
	protected.Post("/tabs/:id/close", tabs.CloseTabHandler())

	// Caixa
	protected.Post("/cash-sessions/open", cashier.OpenSessionHandler())
	protected.Get("/cash-sessions/current", cashier.CurrentSessionHandler())
	protected.Post("/cash-sessions/close", cashier.CloseSessionHandler())

	// Pagamentos (gateways simulados)
	protected.Post("/payments/authorize", payment.AuthorizeHandler())
	protected.Get("/payments", payment.ListPaymentsHandler())

	// Relatórios do balcão
	protected.Get("/reports/sales/daily", reports.DailySalesHandler())
	protected.Get("/reports/stock/low", reports.LowStockHandler())

	log.Println("Servidor rodando na porta:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
