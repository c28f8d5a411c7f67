package app

import (
	"context"
	"fmt"
	"time"

	"portfolio/src/clients/yahoo"
	"portfolio/src/config"
	"portfolio/src/database"
	"portfolio/src/repositories"
	"portfolio/src/services"
	redis_utils "portfolio/src/utils/redis"

	"github.com/jackc/pgx/v5/pgxpool"
)

const runLockKey = "portfolio:reconciliation:lock"

// Dependencies holds the connections and repositories shared by the API, the worker and the CLI.
type Dependencies struct {
	Config     *config.Config
	DB         *pgxpool.Pool
	Redis      *redis_utils.RedisHandler
	Securities repositories.SecurityRepository
	Records    repositories.HistoricalRecordRepository
	Runs       repositories.ReconciliationRunRepository
	Users      repositories.UserRepository
	Quotes     yahoo.YahooServiceClientI
}

// Setup connects to Postgres, and to Redis when databases.redis.enabled is set.
func Setup(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := database.SetupDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Config:     cfg,
		DB:         db,
		Securities: repositories.NewSecurityRepository(db),
		Records:    repositories.NewHistoricalRecordRepository(db),
		Runs:       repositories.NewReconciliationRunRepository(db),
		Users:      repositories.NewUserRepository(db),
		Quotes:     yahoo.NewClient(cfg),
	}

	if cfg.Databases.Redis.Enabled {
		deps.Redis, err = redis_utils.NewRedisHandler(ctx, cfg)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}
	return deps, nil
}

// RunLock is shared through Redis when it is configured and local to the process otherwise.
func (d *Dependencies) RunLock() services.RunLock {
	if d.Redis == nil {
		return services.NewLocalRunLock()
	}
	return services.NewRedisRunLock(d.Redis, runLockKey, LockTTL(d.Config))
}

// LockTTL outlives the longest run so a crashed worker cannot hold the lock forever.
func LockTTL(cfg *config.Config) time.Duration {
	if cfg.Reconciliation.RunTimeout <= 0 {
		return time.Hour
	}
	return cfg.Reconciliation.RunTimeout + time.Minute
}

func (d *Dependencies) SyncService() (*services.SyncService, error) {
	return services.NewSyncService(d.DB, d.Securities, d.Records, d.Runs, d.Quotes, d.RunLock(), d.Config)
}

// PortfolioReader serves the synthetic demo portfolio when portfolio.demo is set.
func (d *Dependencies) PortfolioReader() services.PortfolioReader {
	if d.Config.Portfolio.Demo {
		return services.NewDemoProvider(d.Config.Portfolio.UsdToCadRate)
	}
	return services.NewDashboardService(d.Securities, d.Records, d.Config.Portfolio.UsdToCadRate)
}

func (d *Dependencies) AuthService() *services.AuthService {
	return services.NewAuthService(d.Users, d.Config.Auth.JWTSecret, d.Config.Auth.SessionTTL)
}

func (d *Dependencies) Close() {
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
