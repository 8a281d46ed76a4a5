package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-firestore-estate/internal/auth"
	"go-firestore-estate/internal/bootstrap"
	"go-firestore-estate/internal/config"
	propertyEventPublisher "go-firestore-estate/internal/eventpublisher/property"
	"go-firestore-estate/internal/handler/api"
	"go-firestore-estate/internal/listing"
	"go-firestore-estate/internal/normalize"
	propertyRepository "go-firestore-estate/internal/repository/property"
	userRepository "go-firestore-estate/internal/repository/user"
	visitorStatsRepository "go-firestore-estate/internal/repository/visitorstats"
	"go-firestore-estate/internal/visitors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const onlineCheckInterval = 30 * time.Second

func main() {

	cnf := config.LoadConfigOrPanic()
	bootstrap.ConfigureLogging(cnf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	defer close(sigs)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	backend := bootstrap.OpenOrPanic(ctx, cnf)
	defer backend.Close()

	registry, releaseRegistry := bootstrap.NewRegistryOrPanic(ctx, cnf)
	defer releaseRegistry()

	propertyRepo := propertyRepository.New(backend.DB, normalize.New(cnf.Listing.PlaceholderUrl))
	userRepo := userRepository.New(backend.DB)
	statsRepo := visitorStatsRepository.New(backend.DB)

	sources := propertyEventPublisher.PropertySourceFactory(propertyRepo)
	allView := listing.New("all", sources.OnAll())
	featuredView := listing.New("featured", sources.OnFeatured())
	statsView := visitors.NewStatsView(statsRepo, cnf.Visitors.DailyWindow)

	migrator := visitors.NewMigrator(statsRepo, cnf.Visitors.AllowLegacyCleanup)
	reconciler := visitors.NewReconciler(migrator, cnf.Visitors.ReconcileInterval)

	signer := bootstrap.NewSigner(ctx, cnf)
	provider := auth.NewProvider(signer, backend.TokenAdmin())

	handler, err := api.New(api.Options{
		All:           allView,
		Featured:      featuredView,
		Properties:    propertyRepo,
		Users:         userRepo,
		Signer:        signer,
		Tokens:        provider,
		Recorder:      visitors.NewRecorder(statsRepo, registry),
		Migrator:      migrator,
		Stats:         statsView,
		SecureCookies: cnf.Env != "development",
	})
	if err != nil {
		log.Panic().Err(err).Msg("failed to create api handler")
	}

	srv := &http.Server{
		Addr:         cnf.Server.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cnf.Server.ReadTimeout,
		WriteTimeout: cnf.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return startViews(gctx, allView, featuredView, statsView)
	})
	group.Go(func() error {
		return reconciler.Start(gctx)
	})
	group.Go(func() error {
		recoverOnline(gctx, onlineCheckInterval, allView, featuredView)
		return nil
	})
	group.Go(func() error {
		log.Info().Msgf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cnf.Server.ShutdownTimeout)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	})

	select {
	case <-sigs:
		// Received a termination signal, continue to shutdown
	case <-gctx.Done():
		// errgroup encountered an error, continue to shutdown
	}

	cancel() // cancel the root context to signal all the consumers

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Msg("shutdown after failure")
			os.Exit(1)
		}
	case <-time.After(time.Second * 5):
		log.Warn().Msg("timed out waiting for consumers")
		os.Exit(1)
	case <-sigs:
		// Forcefully terminate the app with a signal
		os.Exit(1)
	}
}

// startViews runs the live views until ctx is done.
func startViews(ctx context.Context, all, featured *listing.View, stats *visitors.StatsView) error {
	for _, v := range []*listing.View{all, featured} {
		if err := v.Start(ctx); err != nil {
			return err
		}
		defer v.Close()
	}

	if err := stats.Start(ctx); err != nil {
		return err
	}
	defer stats.Stop()

	<-ctx.Done()
	return nil
}

// recoverOnline re-subscribes views that failed for connectivity reasons.
func recoverOnline(ctx context.Context, interval time.Duration, views ...*listing.View) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, v := range views {
				if v.NotifyOnline() {
					log.Info().Msg("listing re-subscribed after connectivity loss")
				}
			}
		}
	}
}
