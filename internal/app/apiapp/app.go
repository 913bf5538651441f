package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/crush/internal/config"
	"github.com/ivankudzin/crush/internal/domain/model"
	s3infra "github.com/ivankudzin/crush/internal/infra/s3"
	"github.com/ivankudzin/crush/internal/jobs/cleanup"
	"github.com/ivankudzin/crush/internal/repo"
	badgerrepo "github.com/ivankudzin/crush/internal/repo/badger"
	pgrepo "github.com/ivankudzin/crush/internal/repo/postgres"
	redrepo "github.com/ivankudzin/crush/internal/repo/redis"
	authsvc "github.com/ivankudzin/crush/internal/services/auth"
	discoversvc "github.com/ivankudzin/crush/internal/services/discover"
	likessvc "github.com/ivankudzin/crush/internal/services/likes"
	matchessvc "github.com/ivankudzin/crush/internal/services/matches"
	mediasvc "github.com/ivankudzin/crush/internal/services/media"
	messagessvc "github.com/ivankudzin/crush/internal/services/messages"
	profilessvc "github.com/ivankudzin/crush/internal/services/profiles"
	ratesvc "github.com/ivankudzin/crush/internal/services/rate"
	"github.com/ivankudzin/crush/internal/services/realtime"
)

type profileRepository interface {
	profilessvc.ProfileStore
	discoversvc.Repository
	GetMany(ctx context.Context, ids []string) (map[string]model.Profile, error)
}

type matchRepository interface {
	matchessvc.MatchStore
	messagessvc.MatchStore
}

// storage is the backend selected by storage.driver.
type storage struct {
	accounts authsvc.AccountStore
	profiles profileRepository
	likes    repo.PairTxRunner
	matches  matchRepository
	messages messagessvc.MessageStore
	// collector is set for on-disk badger stores only.
	collector cleanup.Collector
	close     func()
}

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	storage    storage
	redis      *goredis.Client
	stopJobs   context.CancelFunc
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	redisClient := openRedis(ctx, cfg.Redis, log)
	var (
		likeLimiter    likessvc.RateLimiter
		messageLimiter messagessvc.RateLimiter
	)
	if redisClient != nil {
		limiter := ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), rateWindows(cfg.Limits))
		likeLimiter = limiter
		messageLimiter = limiter
	}

	objectStorage := openObjectStorage(ctx, cfg.S3, log)

	jobsCtx, stopJobs := context.WithCancel(context.Background())
	if store.collector != nil && cfg.Storage.Badger.GCInterval > 0 {
		go cleanup.New(store.collector, cfg.Storage.Badger.GCInterval, log).Start(jobsCtx)
	}

	hub := realtime.NewHub(log)
	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, store.accounts, cfg.Auth.BcryptCost)
	profileService := profilessvc.NewService(store.profiles, profilessvc.Config{
		DefaultMaxDistanceKM: cfg.Discover.DefaultRadiusKM,
	})
	mediaService := mediasvc.NewService(store.profiles, objectStorage)
	discoverService := discoversvc.NewService(store.profiles, discoversvc.Config{
		DefaultRadiusKM: cfg.Discover.DefaultRadiusKM,
		MaxResults:      cfg.Discover.MaxResults,
	})
	likeService := likessvc.NewService(likessvc.Deps{
		Graph:       store.likes,
		RateLimiter: likeLimiter,
		Notifier:    hub,
	})
	matchService := matchessvc.NewService(store.matches, store.profiles)
	messageService := messagessvc.NewService(messagessvc.Deps{
		Messages:    store.messages,
		Matches:     store.matches,
		RateLimiter: messageLimiter,
		Notifier:    hub,
	})

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)
	RegisterRoutes(r, Dependencies{
		AuthService:     authService,
		ProfileService:  profileService,
		MediaService:    mediaService,
		DiscoverService: discoverService,
		LikeService:     likeService,
		MatchService:    matchService,
		MessageService:  messageService,
		Hub:             hub,
		Logger:          log,
		Config:          cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		storage:    store,
		redis:      redisClient,
		stopJobs:   stopJobs,
		httpRouter: r,
	}, nil
}

func openStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (storage, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err := pgrepo.NewPool(ctx, pgrepo.PoolConfig{
			DSN:             cfg.Postgres.DSN,
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			MaxConnIdleTime: cfg.Postgres.MaxConnIdleTime,
			ConnectTimeout:  cfg.Postgres.ConnectTimeout,
		})
		if err != nil {
			return storage{}, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.Postgres.AutoMigrate {
			if err := pgrepo.Migrate(ctx, pool); err != nil {
				pool.Close()
				return storage{}, err
			}
		}
		log.Info("storage ready", zap.String("driver", config.StoragePostgres))
		return storage{
			accounts: pgrepo.NewAccountRepo(pool),
			profiles: pgrepo.NewProfileRepo(pool),
			likes:    pgrepo.NewLikeRepo(pool),
			matches:  pgrepo.NewMatchRepo(pool),
			messages: pgrepo.NewMessageRepo(pool),
			close:    pool.Close,
		}, nil
	default:
		db, err := badgerrepo.Open(badgerrepo.Config{
			Dir:             cfg.Storage.Badger.Dir,
			SyncWrites:      cfg.Storage.Badger.SyncWrites,
			ConflictRetries: cfg.Storage.Badger.ConflictRetries,
		}, log)
		if err != nil {
			return storage{}, err
		}
		log.Info("storage ready",
			zap.String("driver", config.StorageBadger),
			zap.Bool("in_memory", cfg.Storage.Badger.Dir == ""),
		)
		store := storage{
			accounts: badgerrepo.NewAccountRepo(db),
			profiles: badgerrepo.NewProfileRepo(db),
			likes:    badgerrepo.NewLikeRepo(db),
			matches:  badgerrepo.NewMatchRepo(db),
			messages: badgerrepo.NewMessageRepo(db),
			close: func() {
				if err := db.Close(); err != nil {
					log.Warn("close badger", zap.Error(err))
				}
			},
		}
		if cfg.Storage.Badger.Dir != "" {
			store.collector = db
		}
		return store, nil
	}
}

// openRedis returns nil when redis is disabled or unreachable. Rate limiting
// is skipped in that case.
func openRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *goredis.Client {
	if !cfg.Enabled {
		return nil
	}
	client := redrepo.NewClient(cfg.Addr, cfg.Password, cfg.DB)
	if err := redrepo.Ping(ctx, client); err != nil {
		log.Warn("redis init failed, rate limiting disabled", zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}

// openObjectStorage returns a nil interface when uploads are unavailable.
func openObjectStorage(ctx context.Context, cfg config.S3Config, log *zap.Logger) mediasvc.ObjectStorage {
	if !cfg.Enabled {
		return nil
	}
	client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
	if err == nil {
		err = s3infra.Probe(ctx, client, cfg.Bucket)
	}
	if err != nil {
		log.Warn("s3 init failed, uploads disabled", zap.Error(err))
		return nil
	}

	objects := mediasvc.NewS3Storage(client, cfg.Bucket)
	if err := objects.EnsureBucket(ctx); err != nil {
		log.Warn("s3 bucket unavailable, uploads disabled", zap.Error(err))
		return nil
	}
	return objects
}

func rateWindows(cfg config.LimitsConfig) map[ratesvc.Action][]ratesvc.Window {
	return map[ratesvc.Action][]ratesvc.Window{
		ratesvc.ActionLike: {
			{Limit: cfg.LikesPer10Seconds, Period: 10 * time.Second},
			{Limit: cfg.LikesPerMinute, Period: time.Minute},
		},
		ratesvc.ActionMessage: {
			{Limit: cfg.MessagesPerMinute, Period: time.Minute},
		},
	}
}

func (a *App) Run() error {
	a.logger.Info("api server started",
		zap.String("addr", a.cfg.HTTP.Addr),
		zap.String("storage", a.cfg.Storage.Driver),
		zap.Bool("rate_limits", a.redis != nil),
	)
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	a.stopJobs()
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.storage.close != nil {
		a.storage.close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
