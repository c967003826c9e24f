package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kamermarket/checkout-service-go/internal/cart"
	"github.com/kamermarket/checkout-service-go/internal/config"
	"github.com/kamermarket/checkout-service-go/internal/db"
	"github.com/kamermarket/checkout-service-go/internal/events"
	httpserver "github.com/kamermarket/checkout-service-go/internal/http"
	"github.com/kamermarket/checkout-service-go/internal/order"
	"github.com/kamermarket/checkout-service-go/internal/payment"
	"github.com/kamermarket/checkout-service-go/internal/payment/gateway"
	"github.com/kamermarket/checkout-service-go/internal/rewards"
	"github.com/kamermarket/checkout-service-go/internal/session"
	"github.com/kamermarket/checkout-service-go/internal/worker"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[checkout-service] ", log.LstdFlags|log.Lshortfile)

	// DB
	database := db.MustOpen(cfg.DatabaseDSN)
	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	cartRepo := cart.NewRepository(database)
	orderRepo := order.NewRepository(database)
	attemptRepo := payment.NewAttemptRepository(database)
	rewardRepo := rewards.NewRepository(database)

	// RabbitMQ
	rabbitConn := events.MustDialRabbit(cfg.RabbitURL)
	defer rabbitConn.Close()

	publisher, err := events.NewPublisher(rabbitConn, events.NewSequenceRepository(database))
	if err != nil {
		logger.Fatalf("event publisher: %v", err)
	}
	defer publisher.Close()

	// Payment providers. The simulators stand in for the real MTN MoMo and
	// Orange Money APIs.
	mtn := gateway.NewSimulator("mtn-momo")
	orange := gateway.NewSimulator("orange-money")
	dispatcher := payment.NewDispatcher(mtn, orange, attemptRepo, logger)

	materializer := order.NewMaterializer(orderRepo, publisher, logger)

	// Session manager
	authClient, err := session.NewHTTPAuthClient(cfg.AuthURL, nil)
	if err != nil {
		logger.Fatalf("auth client: %v", err)
	}
	sessions := session.NewManager(authClient, logger)

	wheel, err := rewards.NewWheel(rewards.DefaultPrizes())
	if err != nil {
		logger.Fatalf("rewards wheel: %v", err)
	}
	rewardSvc := rewards.NewService(wheel, rewardRepo, logger)

	// Context for background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions.StartPeriodicCheck(ctx, cfg.SessionCheckInterval)

	reconciler := worker.NewReconciliationWorker(
		attemptRepo,
		map[payment.Method]payment.StatusChecker{
			payment.MethodMTNMoMo:     mtn,
			payment.MethodOrangeMoney: orange,
		},
		cfg.ReconcileInterval,
		cfg.ReconcileAfter,
		logger,
	)
	go reconciler.Run(ctx)

	// HTTP
	checkoutHandler := httpserver.NewCheckoutHandler(
		httpserver.NewFlowStore(),
		cartRepo,
		dispatcher,
		materializer,
		logger,
		cfg.SuccessCountdown,
		cfg.CountdownTick,
	)

	handler := httpserver.NewRouter(httpserver.RouterDeps{
		Carts:            cartRepo,
		Orders:           orderRepo,
		Checkout:         checkoutHandler,
		Rewards:          rewardSvc,
		Sessions:         sessions,
		Logger:           logger,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 35 * time.Second, // place-order waits on provider calls
	}

	go func() {
		logger.Printf("checkout-service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()
}
