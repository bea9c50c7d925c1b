package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shootops/internal/account"
	"shootops/internal/api"
	"shootops/internal/billing"
	"shootops/internal/hold"
	"shootops/internal/media"
	"shootops/internal/payment"
	"shootops/internal/shoot"
	"shootops/internal/webhook"
	"shootops/pkg/config"
)

type Dependencies struct {
	Cfg config.Config
	DB  *pgxpool.Pool
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	accountsRepo := account.NewRepository(deps.DB)
	shootsRepo := shoot.NewRepository(deps.DB)
	paymentsRepo := billing.NewRepository(deps.DB)
	holdsRepo := hold.NewRepository(deps.DB)
	mediaRepo := media.NewRepository(deps.DB)

	shootHandlers := shoot.Handlers{
		DB:       deps.DB,
		Shoots:   shootsRepo,
		Payments: paymentsRepo,
		Holds:    holdsRepo,
		Media:    mediaRepo,
		Policy:   deps.Cfg.Policy,
	}
	paymentHandlers := payment.Handlers{
		Cfg: deps.Cfg,
		DB:  deps.DB,
	}
	webhookHandlers := webhook.Handlers{
		Cfg: deps.Cfg,
		DB:  deps.DB,
	}

	// v1
	r.Route("/v1", func(r chi.Router) {
		// Dashboard APIs, called from a separate frontend domain. Only allow
		// CORS for explicitly configured origins.
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.AllowedOrigins,
			MaxAgeSeconds:  600,
		}))

		r.Group(func(r chi.Router) {
			// Production: Bearer session tokens.
			// Dev: falls back to X-Account-Email if Authorization is missing.
			r.Use(api.SessionAuth(deps.Cfg, accountsRepo))

			r.Get("/shoots", shootHandlers.List)
			r.Get("/shoots/eligible", shootHandlers.Eligible)
			r.Post("/shoots", shootHandlers.Create)
			r.Get("/shoots/{id}", shootHandlers.Get)
			r.Post("/shoots/{id}/services", shootHandlers.ServiceCreate)
			r.Patch("/shoots/{id}", shootHandlers.Patch)
			r.Delete("/shoots/{id}", shootHandlers.Delete)

			// Workflow transitions
			r.Post("/shoots/{id}/send-to-editing", shootHandlers.SendToEditing)
			r.Post("/shoots/{id}/finalize", shootHandlers.Finalize)
			r.Post("/shoots/{id}/hold", shootHandlers.Hold)
			r.Post("/shoots/{id}/hold-request", shootHandlers.RequestHold)
			r.Post("/shoots/{id}/hold-request/decide", shootHandlers.DecideHoldRequest)
			r.Post("/shoots/{id}/resume", shootHandlers.Resume)
			r.Post("/shoots/{id}/cancel", shootHandlers.Cancel)

			// Timeline and deliverables
			r.Get("/shoots/{id}/events", shootHandlers.Events)
			r.Get("/shoots/{id}/media", shootHandlers.MediaList)
			r.Post("/shoots/{id}/media", shootHandlers.MediaCreate)

			// Payments
			r.Post("/shoots/{id}/pay", paymentHandlers.Pay)
			r.Post("/payments/bulk", paymentHandlers.PayBulk)
		})

		// Webhooks (signature-verified, no session)
		r.Post("/webhooks/payments/{topic}", webhookHandlers.Receive)
	})

	return r
}
