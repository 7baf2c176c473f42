package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "github.com/devpablofiz/Hotelier/internal/adapters/http_server"
	"github.com/devpablofiz/Hotelier/internal/adapters/observability"
	redisad "github.com/devpablofiz/Hotelier/internal/adapters/redis"
	tcpserver "github.com/devpablofiz/Hotelier/internal/adapters/tcp_server"
	"github.com/devpablofiz/Hotelier/internal/domain"
	"github.com/devpablofiz/Hotelier/internal/ranking"
	"github.com/devpablofiz/Hotelier/internal/registry"
	"github.com/devpablofiz/Hotelier/internal/shared"
	"github.com/devpablofiz/Hotelier/internal/storage/jsonfile"
	mysqlstore "github.com/devpablofiz/Hotelier/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// catalog
	catalog := jsonfile.NewCatalog(cfg.HotelsFile)
	hotels, err := catalog.Load(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("catalog load failed")
	}
	log.Info().Int("hotels", len(hotels)).Str("file", cfg.HotelsFile).Msg("catalog loaded")

	reg := registry.New(hotels, nil)
	reg.WarmRankedView()

	// user register: MySQL when a DSN is configured, JSON file otherwise
	var users domain.UserStore
	var saveUsers func(context.Context) error
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("user register on MySQL")
		users = mysqlstore.New(db)
	} else {
		store, err := jsonfile.NewUserStore(cfg.UsersFile)
		if err != nil {
			log.Fatal().Err(err).Msg("user register load failed")
		}
		log.Info().Str("file", cfg.UsersFile).Msg("user register on JSON file")
		users = store
		saveUsers = store.Save
	}

	// notification channels
	var mcast *ranking.MulticastSender
	if cfg.MulticastAddr != "" {
		mcast, err = ranking.NewMulticastSender(cfg.MulticastAddr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.MulticastAddr).Msg("multicast sender failed")
		}
		defer mcast.Close()
	}
	dispatcher := ranking.NewDispatcher(mcast)
	if cfg.RedisAddr != "" {
		pub := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer pub.Close()
		dispatcher.RegisterGlobal(pub)
		log.Info().Str("addr", cfg.RedisAddr).Msg("publishing ranking digests to redis")
	}

	// background loops
	scheduler := ranking.NewScheduler(reg, dispatcher, cfg.RankingPeriod)
	scheduler.Start()

	persistCtx, stopPersist := context.WithCancel(context.Background())
	persistDone := make(chan struct{})
	go func() {
		defer close(persistDone)
		runPersistLoop(persistCtx, cfg.SavePeriod, reg, catalog, saveUsers)
	}()

	// admin HTTP
	srv := server.New()
	promReg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(promReg))
	srv.MountHandlers(&server.Handlers{Reg: reg, Users: users})
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("admin API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// TCP protocol server
	tcp := tcpserver.New(reg, users, cfg.MaxConns)
	tcpErr := make(chan error, 1)
	go func() { tcpErr <- tcp.ListenAndServe(cfg.TCPAddr) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-tcpErr:
		// failure to bind the protocol socket is the one fatal startup error
		log.Fatal().Err(err).Str("addr", cfg.TCPAddr).Msg("tcp server failed")
	}

	_ = tcp.Close()
	scheduler.Stop()
	stopPersist()
	<-persistDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	// final flush so nothing since the last tick is lost
	if err := catalog.Save(shutdownCtx, reg.SnapshotHotels()); err != nil {
		log.Error().Err(err).Msg("final catalog save failed")
	}
	if saveUsers != nil {
		if err := saveUsers(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("final user save failed")
		}
	}
	log.Info().Msg("bye")
}

// runPersistLoop snapshots the registry and user register to disk on a fixed
// period. A slow save skips the overlapping tick instead of queueing it, and
// a failed save only logs: persistence trouble must never block reviews.
func runPersistLoop(ctx context.Context, period time.Duration, reg *registry.Registry, catalog *jsonfile.Catalog, saveUsers func(context.Context) error) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := catalog.Save(ctx, reg.SnapshotHotels()); err != nil {
				log.Error().Err(err).Msg("catalog save failed")
			}
			if saveUsers != nil {
				if err := saveUsers(ctx); err != nil {
					log.Error().Err(err).Msg("user save failed")
				}
			}
		}
	}
}
