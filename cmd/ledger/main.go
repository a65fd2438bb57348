package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/stock-ledger/internal/api"
	"github.com/Spok95/stock-ledger/internal/bot"
	"github.com/Spok95/stock-ledger/internal/config"
	"github.com/Spok95/stock-ledger/internal/domain/catalog"
	"github.com/Spok95/stock-ledger/internal/domain/inventory"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
	"github.com/Spok95/stock-ledger/internal/infra/db"
	httpx "github.com/Spok95/stock-ledger/internal/infra/http"
	"github.com/Spok95/stock-ledger/internal/infra/idempotency"
	"github.com/Spok95/stock-ledger/internal/infra/logger"
	"github.com/Spok95/stock-ledger/internal/infra/notify"
	"github.com/Spok95/stock-ledger/internal/stocktake"
	"github.com/Spok95/stock-ledger/internal/store/postgres"
	"github.com/Spok95/stock-ledger/internal/store/sqlite"
)

type stores struct {
	tenancy   tenancy.Store
	catalog   catalog.Store
	inventory inventory.Store
	close     func()
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := db.MigratePostgres(ctx, cfg.Storage.DSN, log); err != nil {
			return nil, err
		}
		pool, err := db.Connect(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		st := postgres.New(pool)
		return &stores{st.Tenancy, st.Catalog, st.Inventory, pool.Close}, nil
	default:
		if err := db.MigrateSQLite(ctx, cfg.Storage.Path, log); err != nil {
			return nil, err
		}
		sqlDB, err := db.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		st := sqlite.New(sqlDB)
		return &stores{st.Tenancy, st.Catalog, st.Inventory, func() { _ = sqlDB.Close() }}, nil
	}
}

func main() {
	path := flag.String("config", "", "path to the yaml config (default $APP_CONFIG or config/example.yaml)")
	flag.Parse()
	if *path == "" {
		*path = os.Getenv("APP_CONFIG")
	}
	if *path == "" {
		*path = "config/example.yaml"
	}

	cfg, err := config.Load(*path)
	if err != nil {
		panic(err)
	}
	loc, err := logger.Location(cfg.App.Timezone)
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.App.Env, loc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error("storage init failed", "driver", cfg.Storage.Driver, "err", err)
		return
	}
	defer st.close()
	log.Info("storage ready", "driver", cfg.Storage.Driver)

	tenants := tenancy.NewService(st.tenancy, log)
	var single *tenancy.Scope
	if cfg.Tenancy.Mode == config.TenancySingle {
		t, err := tenants.EnsureTenant(ctx, cfg.Tenancy.DefaultTenant)
		if err != nil {
			log.Error("default tenant", "err", err)
			return
		}
		sc := tenancy.Single(t)
		single = &sc
		log.Info("single-tenant mode", "tenant", t.Name, "tenant_id", t.ID)
	} else if owner := cfg.Tenancy.BootstrapOwner; owner != "" {
		t, err := tenants.Bootstrap(ctx, cfg.Tenancy.DefaultTenant, owner)
		if err != nil {
			log.Error("tenant bootstrap", "err", err)
			return
		}
		log.Info("multi-tenant mode", "tenant", t.Name, "tenant_id", t.ID, "owner", owner)
	}

	var (
		tg       *tgbotapi.BotAPI
		notifier inventory.Notifier = notify.NewLog(log)
	)
	if cfg.Telegram.Token != "" {
		tg, err = tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram init failed", "err", err)
			return
		}
		log.Info("telegram authorized", "bot", tg.Self.UserName)
		if cfg.Telegram.AdminChatID != 0 {
			notifier = notify.NewTelegram(tg, cfg.Telegram.AdminChatID)
		}
	}

	var guard idempotency.Guard = idempotency.Nop{}
	if cfg.Redis.Addr != "" {
		rdb, err := idempotency.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error("redis connect failed", "err", err)
			return
		}
		defer func() { _ = rdb.Close() }()
		guard = idempotency.NewRedis(rdb, cfg.Redis.IdempotencyTTL)
		log.Info("redis connected", "addr", cfg.Redis.Addr)
	}

	ledger := inventory.NewLedger(st.inventory, notifier, log)
	counts := stocktake.NewService(ledger, log)
	h := api.New(api.Deps{
		Tenancy:   tenants,
		Catalog:   catalog.NewService(st.catalog, log),
		Ledger:    ledger,
		Stocktake: counts,
		Guard:     guard,
		Log:       log,
		Single:    single,
	})

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, h.Register)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	if tg != nil {
		b := bot.New(tg, log, ledger, counts, bot.Options{
			Tenancy:   tenants,
			Single:    single,
			AdminChat: cfg.Telegram.AdminChatID,
		})
		go func() {
			if err := b.Run(ctx, 30); err != nil && ctx.Err() == nil {
				log.Error("bot stopped", "err", err)
			}
		}()
		log.Info("bot started")
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
