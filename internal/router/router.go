package router

import (
	"encoding/json"
	"net/http"

	"bookstore/internal/asset"
	"bookstore/internal/handler"
	"bookstore/internal/middleware"
	"bookstore/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Books    *handler.BookHandler
	Orders   *handler.OrderHandler
	Checkout *handler.CheckoutHandler
	Payments *handler.PaymentHandler
	Assets   *handler.AssetHandler
}

// Options configures cross-cutting router behaviour.
type Options struct {
	AdminCode      string
	AllowedOrigins []string
	// UploadsDir is served under /uploads/ when set.
	UploadsDir string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeRouteError(w, r, http.StatusNotFound, model.ErrCodeRouteNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeRouteError(w, r, http.StatusMethodNotAllowed, model.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if opts.UploadsDir != "" {
		fs := http.StripPrefix(asset.UploadsPath, http.FileServer(http.Dir(opts.UploadsDir)))
		r.Handle(asset.UploadsPath+"*", fs)
	}

	admin := middleware.AdminAuth(opts.AdminCode, logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/books", h.Books.List)
		r.Get("/books/{bookId}", h.Books.Get)

		r.Post("/orders", h.Orders.Create)
		r.Get("/orders/{orderId}", h.Orders.Get)
		r.With(admin).Put("/orders/{orderId}/status", h.Orders.UpdateStatus)

		r.Post("/checkout", h.Checkout.Checkout)
		r.Post("/create-payment", h.Checkout.CreatePayment)

		r.Post("/payments/webhook", h.Payments.Webhook)
		r.Get("/payments/return", h.Payments.Return)
		r.Post("/payments/return", h.Payments.Return)

		r.Route("/admin", func(r chi.Router) {
			r.Use(admin)
			r.Get("/orders", h.Orders.List)
			r.Get("/books", h.Books.List)
			r.Post("/assets", h.Assets.Upload)
		})
	})

	return r
}

func writeRouteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: chimw.GetReqID(r.Context()),
	})
}
