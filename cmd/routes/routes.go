package routes

import (
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swiftryde/swiftryde-wallet/internal/auth"
	"github.com/swiftryde/swiftryde-wallet/internal/middleware"
	"github.com/swiftryde/swiftryde-wallet/internal/user"
	"github.com/swiftryde/swiftryde-wallet/internal/wallet"
	"github.com/swiftryde/swiftryde-wallet/pkg/config"
	"github.com/swiftryde/swiftryde-wallet/pkg/logger"
	"golang.org/x/time/rate"
)

func RegisterRoutes(r *mux.Router, cfg config.Config, userRepo user.Repository, walletHandler *wallet.Handler) http.Handler {
	r.Use(middleware.LoggingMiddleware)

	moneyLimiter := middleware.NewRateLimiter(rate.Limit(5), 10)

	walletR := r.PathPrefix("/api/wallet").Subrouter()

	// provider callbacks authenticate by signature, not session
	walletR.HandleFunc("/paystack/webhook", walletHandler.PaystackWebhook).Methods("POST")

	opsR := walletR.PathPrefix("").Subrouter()
	opsR.Use(auth.JWTMiddleware(cfg, userRepo))
	opsR.HandleFunc("/create", walletHandler.CreateWallet).Methods("POST")
	opsR.HandleFunc("", walletHandler.GetWallet).Methods("GET")
	opsR.HandleFunc("/balance", walletHandler.GetWalletBalance).Methods("GET")
	opsR.HandleFunc("/transactions", walletHandler.GetTransactions).Methods("GET")
	opsR.HandleFunc("/transactions/{reference}/status", walletHandler.GetTransactionStatus).Methods("GET")
	opsR.HandleFunc("/banks", walletHandler.ListBanks).Methods("GET")
	opsR.HandleFunc("/banks/resolve", walletHandler.ResolveAccount).Methods("GET")

	withdrawR := opsR.PathPrefix("/withdraw").Subrouter()
	withdrawR.Use(moneyLimiter.Limit)
	withdrawR.HandleFunc("", walletHandler.Withdraw).Methods("POST")

	if cfg.Env != "production" {
		r.HandleFunc("/swagger.yaml", func(w http.ResponseWriter, r *http.Request) {
			content, err := os.ReadFile("docs/swagger.yaml")
			if err != nil {
				logger.Error("Failed to read swagger.yaml", logger.Fields{"error": err.Error()})
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/yaml")
			w.Write(content)
		})

		r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
			httpSwagger.URL("/swagger.yaml"),
		))
		logger.Info("Swagger documentation enabled at /swagger/index.html")
	}

	corsObj := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	return corsObj(r)
}
