package main

import (
	"context"
	"net/http"

	"github.com/booklore-app/booklore/pkg/config"
	"github.com/booklore-app/booklore/pkg/database"
	"github.com/booklore-app/booklore/pkg/events"
	"github.com/booklore-app/booklore/pkg/libraries"
	"github.com/booklore-app/booklore/pkg/migrations"
	"github.com/booklore-app/booklore/pkg/monitoring"
	"github.com/booklore-app/booklore/pkg/processor"
	"github.com/booklore-app/booklore/pkg/server"
	"github.com/booklore-app/booklore/pkg/settings"
	"github.com/booklore-app/booklore/pkg/version"
	"github.com/booklore-app/booklore/pkg/worker"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting booklore", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	hub := events.NewHub()

	monitor, err := monitoring.New(log)
	if err != nil {
		log.Err(err).Fatal("monitoring error")
	}

	// Watch every registered library path from the start.
	libraryService := libraries.NewService(db)
	all, err := libraryService.ListLibraries(ctx, libraries.ListLibrariesOptions{})
	if err != nil {
		log.Err(err).Fatal("list libraries error")
	}
	roots := []string{}
	for _, library := range all {
		for _, path := range library.LibraryPaths {
			roots = append(roots, path.Path)
		}
	}
	monitor.RegisterPaths(roots)
	log.Info("monitoring library paths", logger.Data{"count": len(roots)})

	settingsService := settings.NewService(db)
	pipeline := processor.NewPipeline(db, log, hub, settingsService)
	wrkr := worker.New(cfg, db, pipeline, monitor.Events())

	srv, err := server.New(cfg, db, hub, monitor, settingsService)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		log.Info("server started", logger.Data{"addr": srv.Addr})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started")

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	err = monitor.Close()
	if err != nil {
		log.Err(err).Error("monitoring close error")
	}
	log.Info("monitoring closed")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
