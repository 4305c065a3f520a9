package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmer-market/internal/config"
	"github.com/mamadbah2/farmer-market/internal/repository/mongodb"
	"github.com/mamadbah2/farmer-market/internal/repository/redisstore"
	"github.com/mamadbah2/farmer-market/internal/repository/sheets"
	"github.com/mamadbah2/farmer-market/internal/scheduler"
	"github.com/mamadbah2/farmer-market/internal/server/handlers"
	"github.com/mamadbah2/farmer-market/internal/server/router"
	cartsvc "github.com/mamadbah2/farmer-market/internal/service/cart"
	catalogsvc "github.com/mamadbah2/farmer-market/internal/service/catalog"
	commandsvc "github.com/mamadbah2/farmer-market/internal/service/commands"
	farmsvc "github.com/mamadbah2/farmer-market/internal/service/farm"
	notifysvc "github.com/mamadbah2/farmer-market/internal/service/notify"
	ordersvc "github.com/mamadbah2/farmer-market/internal/service/orders"
	prebookingsvc "github.com/mamadbah2/farmer-market/internal/service/prebooking"
	reportingsvc "github.com/mamadbah2/farmer-market/internal/service/reporting"
	usersvc "github.com/mamadbah2/farmer-market/internal/service/users"
	whatsappsvc "github.com/mamadbah2/farmer-market/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/farmer-market/pkg/clients/whatsapp"
	"github.com/mamadbah2/farmer-market/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.App.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	store, err := mongodb.NewStore(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()
	if err := store.EnsureIndexes(startupCtx); err != nil {
		baseLogger.Fatal("failed to ensure mongodb indexes", zap.Error(err))
	}

	redisClient := redisstore.NewClient(cfg.Redis)
	defer func() { _ = redisClient.Close() }()
	if err := redisstore.Ping(startupCtx, redisClient); err != nil {
		baseLogger.Fatal("failed to reach redis", zap.Error(err))
	}
	kv := redisstore.NewRedisKV(redisClient)

	db := store.Database()
	vegetableRepo := mongodb.NewVegetableRepository(db)
	orderRepo := mongodb.NewOrderRepository(db)
	preBookingRepo := mongodb.NewPreBookingRepository(db)
	userRepo := mongodb.NewUserRepository(db)

	var ledger ordersvc.Ledger = sheets.NopLedger{}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(startupCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		orderLedger := sheets.NewOrderLedger(sheetsRepo, cfg.Sheets.OrdersRange)
		if err := orderLedger.EnsureHeader(startupCtx); err != nil {
			baseLogger.Warn("failed to prepare order ledger sheet", zap.Error(err))
		}
		ledger = orderLedger
	} else {
		baseLogger.Warn("google sheets not configured, order ledger disabled")
	}

	// Left as a nil interface when disabled so notify and messaging skip sending.
	var whatsClient whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		whatsClient = whatsappclient.NewClient(cfg.WhatsApp)
	} else {
		baseLogger.Warn("whatsapp token missing, outbound messages disabled")
	}

	userSvc := usersvc.NewService(userRepo, baseLogger.Named("svc.users"))
	notifier := notifysvc.NewService(whatsClient, userSvc, baseLogger.Named("svc.notify"))

	cache := catalogsvc.NewCache(kv, cfg.Catalog.CacheTTL, time.Now)
	catalogSvc := catalogsvc.NewService(vegetableRepo, cache, cfg.App.Development(), baseLogger.Named("svc.catalog"))
	cartSvc := cartsvc.NewService(catalogSvc, redisstore.NewCartStore(kv), baseLogger.Named("svc.cart"))
	orderSvc := ordersvc.NewService(ordersvc.Deps{
		Carts:    cartSvc,
		Stock:    catalogSvc,
		Store:    orderRepo,
		Ledger:   ledger,
		Notifier: notifier,
	}, baseLogger.Named("svc.orders"))
	preBookingSvc := prebookingsvc.NewService(preBookingRepo, catalogSvc, notifier, baseLogger.Named("svc.prebooking"))

	farmSvc := farmsvc.NewService(farmsvc.Stores{
		Layouts:   mongodb.NewLayoutRepository(db),
		Positions: mongodb.NewPositionRepository(db),
		TreeTypes: mongodb.NewTreeTypeRepository(db),
		NodeTypes: mongodb.NewNodeTypeRepository(db),
		CareLogs:  mongodb.NewCareLogRepository(db),
	}, baseLogger.Named("svc.farm"))

	if treeTypes, err := config.LoadTreeTypes(cfg.Catalog.TreeTypesFile); err != nil {
		baseLogger.Warn("failed to load tree types seed", zap.String("path", cfg.Catalog.TreeTypesFile), zap.Error(err))
	} else if err := farmSvc.SeedTreeTypes(startupCtx, treeTypes); err != nil {
		baseLogger.Error("failed to seed tree types", zap.Error(err))
	}

	reportingSvc := reportingsvc.NewService(orderRepo, preBookingRepo, reportingLocation(cfg.Reporting.Timezone), baseLogger.Named("svc.reporting"))
	commandDispatcher := commandsvc.NewService(userSvc, preBookingSvc, catalogSvc, baseLogger.Named("svc.commands"))
	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))

	engine := router.New(router.Handlers{
		Webhook: handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp")),
		Marketplace: handlers.NewMarketplaceHandler(handlers.MarketplaceServices{
			Users:       userSvc,
			Catalog:     catalogSvc,
			Carts:       cartSvc,
			Orders:      orderSvc,
			PreBookings: preBookingSvc,
		}, baseLogger.Named("handlers.marketplace")),
		Farm: handlers.NewFarmHandler(farmSvc, baseLogger.Named("handlers.farm")),
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, reportingSvc, preBookingSvc, notifier, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func reportingLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
