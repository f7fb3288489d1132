// Package server assembles the gateway's HTTP API: routes, middleware, and
// the WebSocket endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/server/handler"
	"github.com/evmarket/evmarketd/internal/server/middleware"
	"github.com/evmarket/evmarketd/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port             int
	CORSOrigins      []string
	RateLimitEnabled bool
	RateLimitPerMin  int
}

// Handlers aggregates all HTTP handlers that the server registers.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Auctions *handler.AuctionHandler
	Catalog  *handler.CatalogHandler
	Wallet   *handler.WalletHandler
	Checkout *handler.CheckoutHandler
	Seller   *handler.SellerHandler
}

// Server is the gateway's HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered. Session-protected
// routes pass through the session middleware individually; catalog browsing,
// health, and the auth entry points stay public.
func NewServer(
	cfg Config,
	handlers Handlers,
	auth middleware.Authenticator,
	limiter domain.RateLimiter,
	wsHub *ws.Hub,
	logger *slog.Logger,
) *Server {
	mux := http.NewServeMux()
	protected := middleware.SessionAuth(auth)
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protected(h))
	}

	// Public surface.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("POST /api/auth/login", handlers.Auth.Login)
	mux.HandleFunc("POST /api/auth/register", handlers.Auth.Register)
	mux.HandleFunc("GET /api/auth/google-url", handlers.Auth.GoogleAuthURL)
	mux.HandleFunc("POST /api/auth/exchange-code", handlers.Auth.ExchangeCode)
	mux.HandleFunc("GET /api/vehicles", handlers.Catalog.ListVehicles)
	mux.HandleFunc("GET /api/vehicles/{id}", handlers.Catalog.GetVehicle)
	mux.HandleFunc("GET /api/batteries", handlers.Catalog.ListBatteries)
	mux.HandleFunc("GET /api/batteries/{id}", handlers.Catalog.GetBattery)

	// Session-protected surface.
	route("POST /api/auth/logout", handlers.Auth.Logout)
	route("GET /api/auth/me", handlers.Auth.Me)

	route("GET /api/auctions/live", handlers.Auctions.ListLive)
	route("GET /api/auctions/{listingType}/{listingId}", handlers.Auctions.GetDetail)
	route("GET /api/auctions/{listingType}/{listingId}/status", handlers.Auctions.GetStatus)
	route("POST /api/auctions/{listingType}/{listingId}/deposit", handlers.Auctions.PlaceDeposit)
	route("POST /api/auctions/{listingType}/{listingId}/bids", handlers.Auctions.PlaceBid)

	route("GET /api/wallet", handlers.Wallet.Balance)
	route("GET /api/wallet/history", handlers.Wallet.History)
	route("POST /api/wallet/deposit", handlers.Wallet.Deposit)
	route("POST /api/wallet/withdraw", handlers.Wallet.Withdraw)

	route("POST /api/checkout", handlers.Checkout.Purchase)
	route("GET /api/transactions/me", handlers.Checkout.Purchases)
	route("GET /api/transactions/{transactionId}", handlers.Checkout.Transaction)
	route("GET /api/settlements/recent", handlers.Checkout.RecentSettlements)
	route("GET /api/settlements/stats", handlers.Checkout.SettlementStats)

	route("GET /api/me/vehicles", handlers.Seller.MyVehicles)
	route("GET /api/me/batteries", handlers.Seller.MyBatteries)
	route("PATCH /api/batteries/{id}", handlers.Seller.UpdateBattery)
	route("POST /api/listings/{listingType}", handlers.Seller.CreateListing)

	// WebSocket endpoint. Event frames carry no tokens, so the socket itself
	// is public; clients only ever receive broadcast data.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	if cfg.RateLimitEnabled && limiter != nil {
		h = middleware.RateLimit(limiter, cfg.RateLimitPerMin, time.Minute)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     h,
		ReadTimeout: 15 * time.Second,
		// Wallet checkouts block on the settlement poll (up to ~30s), so the
		// write timeout has to outlast the poll budget.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
