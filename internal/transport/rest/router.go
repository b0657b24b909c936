package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/auth"
	"github.com/frahmantamala/storefront-pos/internal/core/permissions"
	"github.com/frahmantamala/storefront-pos/internal/product"
	"github.com/frahmantamala/storefront-pos/internal/sale"
	"github.com/frahmantamala/storefront-pos/internal/transport/middleware"
	"github.com/frahmantamala/storefront-pos/internal/transport/swagger"
	"github.com/frahmantamala/storefront-pos/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// RegisterAllRoutes wires the HTTP surface. Every business route sits
// behind the auth middleware plus one capability gate; admins pass every
// gate regardless of their stored permission set.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, userHandler *user.Handler, productHandler *product.Handler, saleHandler *sale.Handler, auditHandler *audit.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/register", authHandler.Register)
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)

			sr.Group(func(ar chi.Router) {
				ar.Use(authHandler.AuthMiddleware)
				ar.Post("/logout", authHandler.Logout)
				ar.Get("/me", authHandler.Me)
			})
		})

		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Route("/products", func(er chi.Router) {
				er.Group(func(gr chi.Router) {
					gr.Use(authHandler.RequireCapability(permissions.CapViewProducts))
					gr.Get("/", productHandler.ListProducts)
					gr.Get("/low-stock", productHandler.GetLowStockProducts)
					gr.Get("/{id}", productHandler.GetProduct)
				})
				er.Group(func(gr chi.Router) {
					gr.Use(authHandler.RequireCapability(permissions.CapAddProducts))
					gr.Post("/", productHandler.CreateProduct)
				})
				er.Group(func(gr chi.Router) {
					gr.Use(authHandler.RequireCapability(permissions.CapEditProducts))
					gr.Put("/{id}", productHandler.UpdateProduct)
					gr.Put("/{id}/stock", productHandler.UpdateStock)
				})
				er.Group(func(gr chi.Router) {
					gr.Use(authHandler.RequireCapability(permissions.CapDeleteProducts))
					gr.Delete("/{id}", productHandler.DeleteProduct)
				})
			})

			pr.Route("/users", func(er chi.Router) {
				er.Group(func(gr chi.Router) {
					gr.Use(authHandler.RequireCapability(permissions.CapViewUsers))
					gr.Get("/", userHandler.ListUsers)
					gr.Get("/{id}", userHandler.GetUser)
				})
				er.Group(func(gr chi.Router) {
					gr.Use(authHandler.RequireCapability(permissions.CapAddUsers))
					gr.Post("/", userHandler.CreateUser)
				})
				er.Group(func(gr chi.Router) {
					gr.Use(authHandler.RequireCapability(permissions.CapEditUsers))
					gr.Put("/{id}", userHandler.UpdateUser)
				})
				er.Group(func(gr chi.Router) {
					gr.Use(authHandler.RequireCapability(permissions.CapDeleteUsers))
					gr.Delete("/{id}", userHandler.DeleteUser)
				})
			})

			pr.Route("/sales", func(er chi.Router) {
				er.Group(func(gr chi.Router) {
					gr.Use(authHandler.RequireCapability(permissions.CapProcessSales))
					gr.Post("/", saleHandler.ProcessSale)
				})
				er.Group(func(gr chi.Router) {
					gr.Use(authHandler.RequireCapability(permissions.CapViewTransactions))
					gr.Get("/history", saleHandler.GetSalesHistory)
				})
				er.Group(func(gr chi.Router) {
					gr.Use(authHandler.RequireCapability(permissions.CapViewReports))
					gr.Get("/reports/daily", auditHandler.GetDailyReport)
					gr.Get("/reports/period", auditHandler.GetPeriodReport)
				})
			})

			pr.Route("/transactions", func(er chi.Router) {
				er.Use(authHandler.RequireCapability(permissions.CapViewTransactions))
				er.Get("/", auditHandler.ListTransactions)
				er.Get("/types", auditHandler.GetTransactionTypes)
				er.Get("/stats/summary", auditHandler.GetStatsSummary)
				er.Get("/user/{userId}", auditHandler.GetUserTransactions)
				er.Get("/product/{productId}", auditHandler.GetProductTransactions)
				er.Get("/{id}", auditHandler.GetTransaction)
			})
		})
	})
}
