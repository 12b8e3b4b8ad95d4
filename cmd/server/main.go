package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/swiftryde/swiftryde-wallet/cmd/routes"
	"github.com/swiftryde/swiftryde-wallet/internal/notify"
	"github.com/swiftryde/swiftryde-wallet/internal/paystack"
	"github.com/swiftryde/swiftryde-wallet/internal/user"
	"github.com/swiftryde/swiftryde-wallet/internal/wallet"
	"github.com/swiftryde/swiftryde-wallet/pkg/config"
	"github.com/swiftryde/swiftryde-wallet/pkg/database"
	"github.com/swiftryde/swiftryde-wallet/pkg/events"
	"github.com/swiftryde/swiftryde-wallet/pkg/lockmap"
	"github.com/swiftryde/swiftryde-wallet/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	database.Connect(cfg.DBUrl)
	database.Migrate(&user.User{}, &wallet.Wallet{}, &wallet.TxHistory{}, &wallet.WithdrawalRequest{}, &notify.Notification{})

	redisClient := events.NewRedisClient(cfg)
	gateway := paystack.NewClient(cfg)

	userRepo := user.NewRepository(database.DB)
	walletRepo := wallet.NewRepository(database.DB)

	locks := lockmap.NewRegistry()
	notifier := notify.NewEmitter(database.DB, redisClient)
	walletService := wallet.NewService(cfg, walletRepo, userRepo, gateway, locks, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := wallet.NewReconcileWorker(cfg, walletService, redisClient)
	worker.Start(ctx)
	walletService.StartLockSweep(ctx, 10*time.Minute, time.Hour)

	r := mux.NewRouter()
	walletHandler := wallet.NewHandler(cfg, walletRepo, walletService, redisClient)
	handler := routes.RegisterRoutes(r, cfg, userRepo, walletHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("Server starting", logger.Fields{"port": cfg.Port, "env": cfg.Env})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Could not listen", logger.Fields{"port": cfg.Port, "error": err.Error()})
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
	logger.Info("Server gracefully shut down")
}
