package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/session-auth/internal/auth"
	"github.com/yourusername/session-auth/internal/config"
	"github.com/yourusername/session-auth/internal/session"
	"github.com/yourusername/session-auth/internal/user"
)

type dependencies struct {
	users    user.Store
	registry session.Registry
	manager  *auth.Manager
	closers  []func() error
}

func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Printf("close dependency: %v", err)
		}
	}
}

// setupDependencies はユーザーストア → セッションレジストリ → 認証マネージャーの順に組み立てます。
func setupDependencies(ctx context.Context, cfg *config.Config, logger *log.Logger) (*dependencies, error) {
	deps := &dependencies{}

	users, err := setupUserStore(ctx, cfg, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.users = users

	registry, err := setupRegistry(ctx, cfg, deps, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.registry = registry

	manager, err := auth.NewManager(users, registry, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.manager = manager
	return deps, nil
}

func setupUserStore(ctx context.Context, cfg *config.Config, deps *dependencies) (user.Store, error) {
	var store user.Store
	if cfg.UserDBPath == "" {
		log.Printf("USER_DB_PATH is empty; using in-memory user store")
		store = user.NewMemoryStore()
	} else {
		sqliteStore, err := user.OpenSQLite(cfg.UserDBPath)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, sqliteStore.Close)
		store = sqliteStore
	}

	if cfg.HasSeedUser() {
		if err := seedUser(ctx, store, cfg); err != nil {
			return nil, fmt.Errorf("seed user: %w", err)
		}
	} else if cfg.UserDBPath == "" {
		log.Printf("no SEED_USER_EMAIL configured; the in-memory user store is empty and every login will fail")
	}
	return store, nil
}

// seedUser は SEED_USER_* で指定されたユーザーを、同じメールが未登録の場合のみ作成します。
func seedUser(ctx context.Context, store user.Store, cfg *config.Config) error {
	email := strings.TrimSpace(cfg.SeedUserEmail)
	existing, err := store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Printf("seed user %s already exists", email)
		return nil
	}

	u, err := user.New(email, cfg.SeedUserPassword, cfg.SeedUserFirstName, cfg.SeedUserLastName)
	if err != nil {
		return err
	}
	if err := store.Create(ctx, u); err != nil {
		return err
	}
	log.Printf("seed user %s created (id %s)", email, u.ID)
	return nil
}

func setupRegistry(ctx context.Context, cfg *config.Config, deps *dependencies, logger *log.Logger) (session.Registry, error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		opt, err := redis.ParseURL(cfg.SessionRedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client := redis.NewClient(opt)
		deps.closers = append(deps.closers, client.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		return session.NewRedisRegistry(client, cfg.SessionTTL()), nil
	default:
		registry := session.NewMemoryRegistry(cfg.SessionTTL())
		registry.StartSweeper(ctx, time.Duration(cfg.SessionSweepInterval)*time.Second, logger)
		return registry, nil
	}
}
