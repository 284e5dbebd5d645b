package router

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JeonghakHeo/Proshop-again/internal/handler"
	"github.com/JeonghakHeo/Proshop-again/internal/middleware"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	configHandler *handler.ConfigHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("/api/config/pay", configHandler.GetPayConfig)

	// Product handler function
	productRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		// Check if this is a request for a specific product ID
		if r.URL.Path != "/api/products" && r.URL.Path != "/api/products/" {
			productHandler.GetByID(w, r)
			return
		}
		productHandler.GetAll(w, r)
	}

	// Register product routes (both with and without trailing slash)
	mux.HandleFunc("/api/products", productRouteHandler)
	mux.HandleFunc("/api/products/", productRouteHandler)

	// Order handler function
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Collection routes
		if path == "/api/orders" || path == "/api/orders/" {
			switch r.Method {
			case http.MethodPost:
				orderHandler.Create(w, r)
			case http.MethodGet:
				orderHandler.List(w, r)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}

		if path == "/api/orders/mine" || path == "/api/orders/mine/" {
			orderHandler.GetMine(w, r)
			return
		}

		// Transition routes: /api/orders/{id}/pay, /sent, /deliver
		switch {
		case strings.HasSuffix(path, "/pay"):
			orderHandler.Pay(w, r)
		case strings.HasSuffix(path, "/sent"):
			orderHandler.Sent(w, r)
		case strings.HasSuffix(path, "/deliver"):
			orderHandler.Deliver(w, r)
		case r.Method == http.MethodDelete:
			orderHandler.Delete(w, r)
		default:
			orderHandler.GetByID(w, r)
		}
	}

	// Register order routes (both with and without trailing slash)
	mux.HandleFunc("/api/orders", orderRouteHandler)
	mux.HandleFunc("/api/orders/", orderRouteHandler)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth -> Identity
	var h http.Handler = mux
	h = middleware.Identity(logger)(h)
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
