package api

import (
	"github.com/go-chi/chi/v5"

	"finance-dashboard/src/auth"
	"finance-dashboard/src/config"
	"finance-dashboard/src/db"
	"finance-dashboard/src/handlers"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/middleware"
	"finance-dashboard/src/models"
	"finance-dashboard/src/services"
	"finance-dashboard/src/store"
)

// Deps are the handles the router wires into handlers.
type Deps struct {
	Config       config.Config
	UserStore    store.UserStore
	Tokens       *auth.TokenService
	Transactions *services.TransactionService
	Dashboard    *services.DashboardService
	Users        *services.UserService
	Cache        *db.DashboardCache
	// Limiter and Plaid are optional.
	Limiter *middleware.Limiter
	Plaid   handlers.PlaidFetcher
	Logger  *logging.Logger
}

func NewRouter(d Deps) *chi.Mux {
	rp := handlers.Reporter{Logger: d.Logger.WithComponent(logging.ComponentHTTP), Development: d.Config.IsDevelopment()}

	r := chi.NewRouter()
	r.Use(middleware.Trace(d.Logger))
	r.Use(middleware.Recover(d.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(d.Config.FrontendURLs))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", handlers.Health(d.Config.Env))

	r.Route("/api", func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter.Middleware(d.Logger))
		}

		r.Post("/auth/login", handlers.Login(d.Users, rp))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(d.Tokens, d.UserStore, d.Logger))
			r.Use(middleware.DemoMode(d.Config.DemoMode))

			// Auth
			r.Get("/auth/profile", handlers.GetProfile(d.Users, rp))
			r.Post("/auth/refresh", handlers.RefreshToken(d.Users, rp))

			// Transactions
			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", handlers.GetTransactions(d.Transactions, d.Config.Location, rp))
				r.Post("/", handlers.CreateTransaction(d.Transactions, rp))
				r.Get("/categories", handlers.GetCategories(d.Transactions, rp))
				r.Post("/export", handlers.ExportTransactions(d.Transactions, rp))
				if d.Plaid != nil {
					r.Post("/import/plaid", handlers.ImportPlaidTransactions(d.Plaid, d.Transactions, rp))
				}
				r.Get("/{id}", handlers.GetTransaction(d.Transactions, rp))
				r.Put("/{id}", handlers.UpdateTransaction(d.Transactions, rp))
				r.Delete("/{id}", handlers.DeleteTransaction(d.Transactions, rp))
			})

			// Dashboard
			r.Get("/dashboard/summary", handlers.GetDashboardSummary(d.Dashboard, rp))
			r.Get("/dashboard/chart-data", handlers.GetChartData(d.Dashboard, rp))

			// Admin
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/users", handlers.GetAllUsers(d.Users, rp))
				r.Post("/users", handlers.CreateUser(d.Users, rp))
				r.Post("/users/{id}/activate", handlers.SetUserActive(d.Users, true, rp))
				r.Post("/users/{id}/deactivate", handlers.SetUserActive(d.Users, false, rp))
				r.Post("/cache/clear", handlers.ClearCache(d.Cache, rp))
			})
		})
	})

	return r
}
