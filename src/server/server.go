package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"loanledger/src/connectors"
	"loanledger/src/database"
	"loanledger/src/handler"
	"loanledger/src/ledger"
	"loanledger/src/payments"
	"loanledger/src/policy"
	"loanledger/src/pricing"
	"loanledger/src/repository"
)

func StartServer(port string) {
	config := GetConfig()
	custodyConfig := connectors.GetConfig()
	custody := connectors.NewCustodyClient(
		custodyConfig.CustodyAPIKey,
		custodyConfig.CustodyAPISecret,
		custodyConfig.CustodyBaseURL,
	)

	prices := pricing.NewTable(repository.NewAssetRepository())
	collateral := ledger.NewLedger(database.MainDB, prices, custody)
	paymentLedger := payments.NewLedger(database.MainDB)
	unlockPolicy := policy.New(database.MainDB)
	users := repository.NewUserRepository()

	// Router with middleware
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", handler.RegisterUserHandler(users))
		r.Get("/{wallet}", handler.GetUserHandler(users))
		r.Put("/{wallet}/bank", handler.UpdateBankAccountHandler(users))
	})

	r.Route("/positions", func(r chi.Router) {
		r.Post("/lock", handler.LockPositionHandler(collateral))
		r.Get("/user/{owner}", handler.DefaultListUserPositionsHandler())
		r.Get("/{positionID}", handler.DefaultGetPositionHandler())
		r.Get("/{positionID}/credential", handler.DefaultGetCredentialHandler())
		r.Post("/{positionID}/unlock", handler.UnlockPositionHandler(collateral))
		r.Post("/{positionID}/liquidate", handler.LiquidatePositionHandler(collateral))
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/record", handler.RecordPaymentHandler(paymentLedger))
		r.Get("/next-unpaid", handler.NextUnpaidHandler(paymentLedger))
		r.Get("/history/{owner}", handler.PaymentHistoryHandler(paymentLedger))
		r.Get("/check-unlock", handler.CheckUnlockHandler(unlockPolicy))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/assets/price", handler.SetAssetPriceHandler(prices))
		r.Post("/assets/supported", handler.SetAssetSupportedHandler(prices))
	})

	// Graceful server
	// Server setup
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
