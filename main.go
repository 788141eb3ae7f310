package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"Feedspeed/internal/auth"
	"Feedspeed/internal/calc/batch"
	"Feedspeed/internal/calc/drill"
	"Feedspeed/internal/calc/endmill"
	"Feedspeed/internal/calc/importer"
	"Feedspeed/internal/calc/report"
	"Feedspeed/internal/calc/thread"
	"Feedspeed/internal/calc/tools"
	"Feedspeed/internal/config"
	"Feedspeed/internal/logging"
	"Feedspeed/internal/metrics"
	"Feedspeed/internal/middleware"
	"Feedspeed/internal/refdata"
	"Feedspeed/internal/repo"
	"Feedspeed/internal/setups"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var wg sync.WaitGroup

// Deps is everything the routes need.
type Deps struct {
	Config  config.Config
	Log     *zap.Logger
	Data    *refdata.Store
	Repo    *repo.SQLRepository
	Limiter *auth.IPRateLimiter
}

func HandleList(r *mux.Router, d Deps) {
	authEnv := &auth.Authenv{JWTkey: []byte(d.Config.TokenKey), Repo: d.Repo, Log: d.Log, Secure: d.Config.TLS()}

	endmillH := &endmill.Handler{Data: d.Data, Log: d.Log}
	drillH := &drill.Handler{Data: d.Data, Log: d.Log}
	threadH := &thread.Handler{Data: d.Data, Catalog: d.Data, Log: d.Log}
	toolsH := &tools.Handler{Catalog: d.Data, Log: d.Log}
	reportH := &report.Handler{Data: d.Data, Log: d.Log}
	batchH := &batch.Handler{Data: d.Data, Log: d.Log}
	importH := &importer.Handler{Data: d.Data, Log: d.Log}
	setupsH := &setups.Handler{Repo: d.Repo, Data: d.Data, Log: d.Log}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(d.Limiter.LimitMiddleware)

	api.HandleFunc("/login", authEnv.AuthHandler).Methods("POST")
	api.HandleFunc("/register", authEnv.RegisterHandler).Methods("POST")
	api.HandleFunc("/logout", authEnv.LogoutHandler).Methods("POST")

	toolsApi := api.PathPrefix("/tools").Subrouter()
	toolsApi.HandleFunc("/endmill/calc", endmillH.Calc).Methods("POST")
	toolsApi.HandleFunc("/endmill/corner-radius", endmillH.CornerRadius).Methods("POST")
	toolsApi.HandleFunc("/endmill/shell-defaults", endmillH.ShellDefaults).Methods("GET")
	toolsApi.HandleFunc("/drill/calc", drillH.Calc).Methods("POST")
	toolsApi.HandleFunc("/thread/calc", threadH.Calc).Methods("POST")
	toolsApi.HandleFunc("/threads", threadH.List).Methods("GET")
	toolsApi.HandleFunc("/materials", toolsH.Materials).Methods("GET")
	toolsApi.HandleFunc("/parse", toolsH.Parse).Methods("POST")
	toolsApi.HandleFunc("/report/pdf", reportH.Generate).Methods("POST")
	toolsApi.HandleFunc("/batch/{kind}", batchH.Calc).Methods("POST")
	toolsApi.HandleFunc("/import/{kind}", importH.Import).Methods("POST")
	toolsApi.HandleFunc("/import/{kind}/template", importH.Template).Methods("GET")

	secureApi := api.PathPrefix("/user").Subrouter()
	secureApi.Use(authEnv.AuthMiddleware)
	secureApi.HandleFunc("/setups", setupsH.List).Methods("GET")
	secureApi.HandleFunc("/setups", setupsH.Create).Methods("POST")
	secureApi.HandleFunc("/setups/{id:[0-9]+}", setupsH.Get).Methods("GET")
	secureApi.HandleFunc("/setups/{id:[0-9]+}", setupsH.Delete).Methods("DELETE")

	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := d.Repo.Ping(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}).Methods("GET")

	r.Use(middleware.RequestID, middleware.Logging(d.Log))
}

func loadData(dir string) (*refdata.Store, error) {
	if dir == "" {
		return refdata.Default()
	}
	return refdata.LoadDir(dir)
}

func main() {
	boot := logging.NewDefault()
	cfg, err := config.Load()
	if err != nil {
		boot.Fatal("configuration", zap.Error(err))
	}
	log, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Fields: map[string]string{"service": "feedspeed"},
	})
	if err != nil {
		boot.Fatal("logger", zap.Error(err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	data, err := loadData(cfg.DataDir)
	if err != nil {
		log.Fatal("reference data", zap.String("dir", cfg.DataDir), zap.Error(err))
	}
	log.Info("reference data loaded",
		zap.Int("materials", len(data.Materials())),
		zap.Strings("thread_series", data.ThreadSeries()),
	)

	store, err := repo.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer store.Close()

	limiter := auth.NewIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	if err := limiter.TrustProxies(cfg.TrustedProxies); err != nil {
		log.Fatal("rate limiter", zap.Error(err))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := limiter.Cleanup(now.Add(-10 * time.Minute)); n > 0 {
					log.Debug("rate limiter cleanup", zap.Int("clients", n))
				}
			}
		}
	}()

	router := mux.NewRouter()
	HandleList(router, Deps{Config: cfg, Log: log, Data: data, Repo: store, Limiter: limiter})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.CORS(cfg.AllowedOrigins)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("starting server", zap.String("addr", cfg.Addr), zap.Bool("tls", cfg.TLS()))
		var err error
		if cfg.TLS() {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, closing active connections")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	wg.Wait()
	log.Info("server stopped")
}
