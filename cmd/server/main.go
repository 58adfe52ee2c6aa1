package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"school_transport/internal/audit"
	"school_transport/internal/config"
	"school_transport/internal/controllers"
	"school_transport/internal/documents"
	"school_transport/internal/jobs"
	"school_transport/internal/kiosk"
	"school_transport/internal/live"
	"school_transport/internal/logger"
	"school_transport/internal/media"
	"school_transport/internal/middleware"
	"school_transport/internal/repository"
	"school_transport/internal/routes"
	"school_transport/internal/tardiness"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	logWriter := logger.Setup(cfg.Log)

	db, err := config.OpenDB(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("open database")
	}
	if err := repository.Migrate(db); err != nil {
		logrus.WithError(err).Fatal("migrate")
	}
	store := repository.New(db)

	blobs, disk, err := openBlobStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("open blob store")
	}

	staging, err := media.NewStaging(filepath.Join(cfg.Storage.StagingDir, "school-transport-staging"), cfg.Storage.MaxUploadBytes)
	if err != nil {
		logrus.WithError(err).Fatal("open staging dir")
	}

	var counter middleware.Counter
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logrus.WithError(err).Warn("redis unreachable, kiosk scans are not rate limited")
		} else {
			counter = middleware.NewRedisCounter(rdb)
		}
		cancel()
	}

	auditor := audit.NewDispatcher(store, cfg.Jobs.AuditBuffer)
	hub := live.NewHub()
	auth := middleware.NewAuth(cfg.Security.JWTSecret, cfg.Security.TokenTTL)

	registry := kiosk.NewRegistry(kiosk.Deps{
		Backend:  store,
		Notifier: hub,
		Previews: staging,
		Capturer: func() media.Capturer { return media.NewStreamCapturer(staging.Dir(), "video/webm") },
		Uploader: media.NewUploader(blobs, cfg.Storage.MediaBucket),
	})

	var files *controllers.FileController
	if disk != nil {
		files = controllers.NewFileController(disk)
	}

	r := routes.SetupRouter(routes.Deps{
		Auth:       auth,
		Counter:    counter,
		ScanLimit:  cfg.Security.ScanRateLimit,
		ScanWindow: cfg.Security.ScanRateWindow,
		LogWriter:  logWriter,

		Users:      controllers.NewAuthController(db, auth),
		Drivers:    controllers.NewDriverController(db, auditor),
		Assistants: controllers.NewAssistantController(db, auditor),
		Vehicles:   controllers.NewVehicleController(db, auditor),
		Schools:    controllers.NewSchoolController(db, auditor),
		Routes:     controllers.NewRouteController(db, auditor),
		Documents:  controllers.NewDocumentController(documents.NewChain(store, blobs, cfg.Storage.DocumentBucket), auditor, cfg.Storage.MaxUploadBytes),
		Compliance: controllers.NewComplianceController(store),
		Kiosk:      controllers.NewKioskController(registry, staging),
		Tardiness:  controllers.NewTardinessController(tardiness.NewReporter(store, store)),
		AuditLog:   controllers.NewAuditController(auditor),
		Live:       controllers.NewLiveController(hub, auth),
		Files:      files,
	})

	scheduler := jobs.NewScheduler()
	sweep := jobs.NewComplianceSweep(store, store, auditor)
	if err := scheduler.Add("compliance-sweep", cfg.Jobs.ComplianceSpec, sweep.Job); err != nil {
		logrus.WithError(err).Fatal("schedule compliance sweep")
	}
	if err := scheduler.Add("kiosk-reaper", cfg.Jobs.KioskReapSpec, jobs.KioskReaper(registry, cfg.Jobs.KioskWorkspaceTTL)); err != nil {
		logrus.WithError(err).Fatal("schedule kiosk reaper")
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logrus.WithField("addr", cfg.Server.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("http shutdown")
	}
	scheduler.Stop(ctx)
	registry.CloseAll()
	hub.Close()
	auditor.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// openBlobStore returns the configured store, plus the disk store when that
// is the backend so /files can serve it.
func openBlobStore(cfg *config.Config) (media.Store, *media.DiskStore, error) {
	if cfg.Storage.Driver == "oss" {
		s, err := media.NewOSSStore(cfg.Storage.OSSEndpoint, cfg.Storage.OSSAccessKey, cfg.Storage.OSSSecretKey,
			cfg.Storage.MediaBucket, cfg.Storage.DocumentBucket)
		return s, nil, err
	}
	d, err := media.NewDiskStore(cfg.Storage.Root, cfg.Server.PublicBaseURL+"/files")
	return d, d, err
}
