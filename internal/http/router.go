package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"pulse/internal/auth"
	"pulse/internal/command"
	"pulse/internal/config"
	"pulse/internal/http/handler"
	mw "pulse/internal/http/middleware"
	"pulse/internal/inventory"
	"pulse/internal/notify"
	"pulse/internal/order"
	"pulse/internal/payment"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, mailer notify.Mailer, payments payment.Provider) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{JWT: jwtSvc, AdminPasswordHash: cfg.AdminPasswordHash}
	r.Post("/admin/login", ah.Login)

	orderSvc := &order.Service{DB: db, Mailer: mailer, Payments: payments}

	wh := &handler.WebhookHandler{Svc: orderSvc, Secret: cfg.WebhookSecret}
	r.Post("/webhook/payment", wh.Payment)

	cmdH := &handler.CommandHandler{Store: &command.Store{DB: db}}
	orderH := &handler.OrderHandler{Svc: orderSvc}
	invH := &handler.InventoryHandler{Svc: &inventory.Service{DB: db}}

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin(jwtSvc, cfg.CronSecret))

		r.Post("/system/trigger", cmdH.Trigger)
		r.Get("/commands", cmdH.List)
		r.Get("/commands/{id}", cmdH.Get)

		r.Get("/orders", orderH.List)
		r.Patch("/orders/status", orderH.UpdateStatus)
		r.Post("/orders/{id}/dispatch", orderH.Dispatch)
		r.Post("/orders/{id}/refund", orderH.Refund)

		r.Get("/inventory", invH.List)
		r.Post("/inventory", invH.Create)
		r.Patch("/inventory/status", invH.UpdateStatus)
		r.Post("/inventory/approve-all", invH.ApproveAll)
		r.Patch("/inventory/{id}", invH.Update)
		r.Delete("/inventory/{id}", invH.Delete)
	})

	return r
}
