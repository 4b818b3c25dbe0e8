package config

import (
	"context"
	"fmt"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/access"
	"github.com/hubvault/hubvault/pkg/audit"
	"github.com/hubvault/hubvault/pkg/content"
	"github.com/hubvault/hubvault/pkg/deletion"
	"github.com/hubvault/hubvault/pkg/engine"
	"github.com/hubvault/hubvault/pkg/keys"
	"github.com/hubvault/hubvault/pkg/lock"
	"github.com/hubvault/hubvault/pkg/metrics"
	promMetrics "github.com/hubvault/hubvault/pkg/metrics/prometheus"
	"github.com/hubvault/hubvault/pkg/store"
	"github.com/hubvault/hubvault/pkg/token"
	tokenbadger "github.com/hubvault/hubvault/pkg/token/badger"
	tokenredis "github.com/hubvault/hubvault/pkg/token/redis"
	"github.com/hubvault/hubvault/pkg/version"
)

// Vault is the assembled service: the engine plus the handles the server
// needs for shutdown and background work.
type Vault struct {
	Engine  *engine.Engine
	Store   *store.Store
	Content *content.Store
	Tokens  token.Store
	Reaper  *lock.Reaper
}

// Close releases the vault's resources in reverse assembly order.
func (v *Vault) Close() error {
	var firstErr error
	if err := v.Tokens.Close(); err != nil {
		firstErr = err
	}
	if err := v.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Assemble builds the full vault from configuration: metadata store,
// content backend, token store, managers and the lifecycle engine.
//
// The oracle and notifier attach the chat platform; pass access.AllowAll
// and nil where none is connected.
func Assemble(ctx context.Context, cfg *Config, oracle access.Oracle, notifier engine.Notifier) (*Vault, error) {
	logger.Debug("assembling vault from configuration")

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	metaStore, err := store.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	blobs, err := content.New(content.DefaultConfig(cfg.Storage.Path))
	if err != nil {
		metaStore.Close()
		return nil, fmt.Errorf("failed to open content store: %w", err)
	}

	backend, err := createContentBackend(blobs, &cfg.Encryption)
	if err != nil {
		metaStore.Close()
		return nil, err
	}

	tokens, err := createTokenStore(ctx, &cfg.Tokens)
	if err != nil {
		metaStore.Close()
		return nil, err
	}

	recorder := audit.NewRecorder(metaStore)
	locks := lock.NewManager(metaStore, cfg.Locks.Expiry)
	wipe := deletion.NewEngine(metaStore, blobs, recorder, deletion.Config{
		SecureWipe:      cfg.Deletion.SecureWipeEnabled(),
		WipeConcurrency: cfg.Deletion.WipeConcurrency,
	})

	if oracle == nil {
		oracle = access.AllowAll
	}

	eng := engine.New(engine.Deps{
		Store:    metaStore,
		Content:  backend,
		Locks:    locks,
		Versions: version.NewManager(metaStore),
		Tokens:   token.NewService(metaStore, tokens, backend, recorder, cfg.Tokens.TTL),
		Deletion: wipe,
		Audit:    recorder,
		Oracle:   oracle,
		Notifier: notifier,
		Metrics:  promMetrics.NewVaultMetrics(),
	}, engine.Config{BaseURL: cfg.API.BaseURL})

	logger.Info("vault assembled",
		"database", string(cfg.Database.Type),
		"encryption", cfg.Encryption.Mode,
		"token_store", cfg.Tokens.Store)

	return &Vault{
		Engine:  eng,
		Store:   metaStore,
		Content: blobs,
		Tokens:  tokens,
		Reaper:  lock.NewReaper(locks, cfg.Locks.ReapInterval),
	}, nil
}

// createContentBackend wraps the plain store per the encryption mode.
func createContentBackend(blobs *content.Store, cfg *EncryptionConfig) (content.Backend, error) {
	switch cfg.Mode {
	case EncryptionModeStandard, "":
		return content.NewStandard(blobs), nil
	case EncryptionModeEncrypted:
		keyring, err := keys.KeyringFromBase64(cfg.MasterKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load master key: %w", err)
		}
		return content.NewEncryptedStore(blobs, keyring), nil
	default:
		return nil, fmt.Errorf("unsupported encryption mode: %q", cfg.Mode)
	}
}

// createTokenStore opens the configured ticket backend.
func createTokenStore(ctx context.Context, cfg *TokensConfig) (token.Store, error) {
	switch cfg.Store {
	case TokenStoreBadger, "":
		ts, err := tokenbadger.New(tokenbadger.Config{
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open badger token store: %w", err)
		}
		return ts, nil
	case TokenStoreRedis:
		ts, err := tokenredis.New(ctx, tokenredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis token store: %w", err)
		}
		return ts, nil
	default:
		return nil, fmt.Errorf("unsupported token store: %q", cfg.Store)
	}
}
