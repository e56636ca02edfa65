package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sony/sonyflake"
	"go.uber.org/zap"

	"github.com/g21-super-team/funny-movies-be/internal/auth"
	"github.com/g21-super-team/funny-movies-be/internal/config"
	"github.com/g21-super-team/funny-movies-be/internal/counter"
	"github.com/g21-super-team/funny-movies-be/internal/db"
	"github.com/g21-super-team/funny-movies-be/internal/flush"
	"github.com/g21-super-team/funny-movies-be/internal/gate"
	"github.com/g21-super-team/funny-movies-be/internal/hub"
	"github.com/g21-super-team/funny-movies-be/internal/metrics"
	"github.com/g21-super-team/funny-movies-be/internal/reaction"
	"github.com/g21-super-team/funny-movies-be/internal/reconcile"
	"github.com/g21-super-team/funny-movies-be/internal/repo"
	"github.com/g21-super-team/funny-movies-be/internal/youtube"
)

// Version is injected via -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	var cfgPaths string
	flag.StringVar(&cfgPaths, "c", "./config.yml", "config file path (supports: a.yml,b.yml)")
	flag.Parse()

	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg, err := config.Load(cfgPaths)
	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
	}
	log.Info("funny-movies starting", zap.String("version", Version), zap.String("addr", cfg.HTTP.Addr))

	metrics.Register()

	store, err := counter.NewRedis(counter.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		Database: cfg.Redis.Database,
	})
	if err != nil {
		log.Fatal("redis init failed", zap.Error(err))
	}
	defer store.Close()

	mysql, err := db.Open(db.Options{
		DSN:          cfg.MySQL.DSN,
		MaxOpenConns: cfg.MySQL.MaxOpenConns,
		MaxIdleConns: cfg.MySQL.MaxIdleConns,
		ConnMaxLife:  cfg.MySQL.ConnMaxLife.Std(),
		ConnMaxIdle:  cfg.MySQL.ConnMaxIdle.Std(),
	})
	if err != nil {
		log.Fatal("mysql init failed", zap.Error(err))
	}
	defer mysql.Close()

	movies := repo.NewMovieRepo(mysql)
	reactions := repo.NewReactionRepo(mysql)
	users := repo.NewUserRepo(mysql)

	sessions := &auth.SessionStore{
		Client: store.Client(),
		Prefix: cfg.Auth.Token.RedisPrefix,
		TTL:    cfg.Auth.Token.TTL.Std(),
	}
	validator := &auth.Validator{Secret: cfg.Auth.Token.Secret, Sessions: sessions}

	h := hub.New()
	sup := gate.NewSupervisor(h, validator, log, gate.Options{Grace: cfg.WS.GracePeriod.Std()})

	flusher := flush.New(store, movies, log, flush.Options{Delay: cfg.Reaction.FlushDelay.Std()})
	defer flusher.Stop()

	svc := reaction.NewService(store, reactions, movies, flusher, log)

	job := reconcile.New(reactions, store, log, reconcile.Options{Interval: cfg.Reconcile.Interval.Std()})
	job.Start()
	defer job.Stop()
	// recover the cache eagerly after a restart
	go func() {
		if err := job.RunOnce(context.Background()); err != nil {
			log.Warn("boot reconcile failed", zap.Error(err))
		}
	}()

	sf := sonyflake.NewSonyflake(sonyflake.Settings{})
	if sf == nil {
		log.Fatal("sonyflake init failed")
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		users:     users,
		movies:    movies,
		svc:       svc,
		sessions:  sessions,
		validator: validator,
		hub:       h,
		sup:       sup,
		sf:        sf,
		yt:        youtube.NewClient(cfg.YouTube.APIKey, cfg.YouTube.Timeout.Std()),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(204) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/auth/register", a.handleRegister)
	mux.HandleFunc("/v1/auth/login", a.handleLogin)
	mux.HandleFunc("/v1/auth/logout", a.requireUser(a.handleLogout))

	mux.HandleFunc("/v1/movies", a.handleMovies)
	mux.HandleFunc("/v1/movies/like", a.requireUser(a.handleReact(reaction.Like)))
	mux.HandleFunc("/v1/movies/unlike", a.requireUser(a.handleReact(reaction.Unlike)))

	mux.HandleFunc("/ws", a.serveWS)

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(mux)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("funny-movies stopped")
}
