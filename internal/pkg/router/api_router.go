package router

import (
	"github.com/propertycare/pcs/app/controllers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Xero integration
	v1.Get("/xero/connect", controllers.HandleXeroConnect)
	v1.Get("/xero/callback", controllers.HandleXeroCallback)
	v1.Post("/xero/invoices", controllers.HandleSendInvoice)
	v1.Post("/xero/payments", controllers.HandleAddPayment)
	v1.Post("/xero/invoices/:id/sync", controllers.HandleSyncInvoice)

	// Invoice read endpoints
	v1.Get("/invoices", controllers.HandleListInvoices)
	v1.Get("/invoices/:id", controllers.HandleGetInvoice)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
