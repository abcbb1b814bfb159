package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/config"
	"github.com/mamadbah2/livestock/internal/repository/mongodb"
	"github.com/mamadbah2/livestock/internal/repository/sheets"
	"github.com/mamadbah2/livestock/internal/scheduler"
	"github.com/mamadbah2/livestock/internal/server/handlers"
	"github.com/mamadbah2/livestock/internal/server/router"
	"github.com/mamadbah2/livestock/internal/service/batches"
	"github.com/mamadbah2/livestock/internal/service/eligibility"
	exportingsvc "github.com/mamadbah2/livestock/internal/service/exporting"
	herdsvc "github.com/mamadbah2/livestock/internal/service/herd"
	importingsvc "github.com/mamadbah2/livestock/internal/service/importing"
	insurancesvc "github.com/mamadbah2/livestock/internal/service/insurance"
	orderssvc "github.com/mamadbah2/livestock/internal/service/orders"
	reportingsvc "github.com/mamadbah2/livestock/internal/service/reporting"
	vaccinationsvc "github.com/mamadbah2/livestock/internal/service/vaccination"
	"github.com/mamadbah2/livestock/pkg/clients/notify"
	"github.com/mamadbah2/livestock/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := mongodb.NewStore(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		sheetsRepo, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
	} else {
		baseLogger.Warn("google sheets not configured, spreadsheet export disabled")
	}

	unitRepo := mongodb.NewUnitRepository(store)
	importRepo := mongodb.NewImportRepository(store)
	exportRepo := mongodb.NewExportRepository(store)
	procurementRepo := mongodb.NewProcurementRepository(store)
	orderRepo := mongodb.NewOrderRepository(store)
	vaccinationRepo := mongodb.NewVaccinationRepository(store)
	insuranceRepo := mongodb.NewInsuranceRepository(store)
	summaryRepo := mongodb.NewSummaryRepository(store)

	reconciler := batches.NewReconciler(unitRepo, importRepo, exportRepo, procurementRepo, orderRepo, baseLogger.Named("svc.batches"))
	propagator := batches.NewPropagator(reconciler, baseLogger.Named("svc.batches"))

	aggregator := vaccinationsvc.NewAggregator(
		vaccinationsvc.NewBatchSource(vaccinationRepo),
		vaccinationsvc.NewSingleSource(vaccinationRepo),
	)
	evaluator := eligibility.NewEvaluator(aggregator, baseLogger.Named("svc.eligibility"))

	var notifier notify.Client
	if cfg.Notify.Enabled() {
		notifier = notify.NewClient(cfg.Notify)
		baseLogger.Info("notify webhook enabled")
	}

	herdSvc := herdsvc.NewService(unitRepo, importRepo, exportRepo, orderRepo, store, propagator, baseLogger.Named("svc.herd"))
	importSvc := importingsvc.NewService(unitRepo, importRepo, store, reconciler, propagator, notifier, baseLogger.Named("svc.importing"))
	exportSvc := exportingsvc.NewService(unitRepo, exportRepo, procurementRepo, orderRepo, store, evaluator, propagator, notifier, baseLogger.Named("svc.exporting"))
	orderSvc := orderssvc.NewService(unitRepo, orderRepo, exportRepo, store, evaluator, propagator, notifier, baseLogger.Named("svc.orders"))
	vaccinationSvc := vaccinationsvc.NewService(vaccinationRepo, unitRepo, baseLogger.Named("svc.vaccination"))
	insuranceSvc := insurancesvc.NewService(unitRepo, insuranceRepo, exportRepo, store, baseLogger.Named("svc.insurance"))
	reportingSvc := reportingsvc.NewService(unitRepo, importRepo, exportRepo, insuranceRepo, summaryRepo, sheetsRepo, baseLogger.Named("svc.reporting"))

	engine := router.New(router.Handlers{
		Herd:        handlers.NewHerdHandler(herdSvc, unitRepo, baseLogger.Named("handlers.herd")),
		Import:      handlers.NewImportHandler(importSvc, baseLogger.Named("handlers.import")),
		Export:      handlers.NewExportHandler(exportSvc, baseLogger.Named("handlers.export")),
		Order:       handlers.NewOrderHandler(orderSvc, baseLogger.Named("handlers.order")),
		Vaccination: handlers.NewVaccinationHandler(vaccinationSvc, aggregator, baseLogger.Named("handlers.vaccination")),
		Insurance:   handlers.NewInsuranceHandler(insuranceSvc, baseLogger.Named("handlers.insurance")),
		Report:      handlers.NewReportHandler(reportingSvc, baseLogger.Named("handlers.report")),
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, reportingSvc, notifier, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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
