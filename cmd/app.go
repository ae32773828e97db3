package cmd

import (
	"fmt"
	"time"

	"github.com/shouni/go-bizplan-kit/pkg/config"
	"github.com/shouni/go-bizplan-kit/pkg/credential"
	"github.com/shouni/go-bizplan-kit/pkg/gemini"
	"github.com/shouni/go-bizplan-kit/pkg/metrics"
	"github.com/shouni/go-bizplan-kit/pkg/workflow"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// app はサブコマンドが共有する組み立て済みの依存関係なのだ。
type app struct {
	cfg       config.Config
	recorder  *metrics.Recorder
	validator *credential.Validator
	store     *credential.Store
	manager   *workflow.Manager
	closers   []func() error
}

// loadConfig は環境変数の設定に viper（フラグ・設定ファイル・BIZPLAN_ 環境変数）の値を重ねるのだ。
func loadConfig() config.Config {
	cfg := config.LoadConfig()
	overlay := func(dst *string, key string) {
		if v := viper.GetString(key); v != "" {
			*dst = v
		}
	}
	overlay(&cfg.PlanModel, "model")
	overlay(&cfg.ImageModel, "image-model")
	overlay(&cfg.CredentialBackend, "credential-backend")
	overlay(&cfg.CredentialDir, "credential-dir")
	overlay(&cfg.RedisAddr, "redis-addr")
	return cfg
}

// newApp は設定から Provider、キー保存先、Manager までを組み立てるのだ。
func newApp(cfg config.Config) (*app, error) {
	a := &app{cfg: cfg, recorder: metrics.NewRecorder()}
	provider := gemini.NewProvider(cfg.ClientCacheTTL)

	validator, err := credential.NewValidator(cfg, provider, a.recorder)
	if err != nil {
		return nil, err
	}
	a.validator = validator

	backend, err := a.newBackend()
	if err != nil {
		return nil, err
	}

	store, err := credential.NewStore(backend, validator, cfg.EnvAPIKey)
	if err != nil {
		return nil, err
	}
	a.store = store

	manager, err := workflow.New(workflow.ManagerArgs{
		Config:      cfg,
		Provider:    provider,
		Credentials: store,
		Validator:   validator,
		Recorder:    a.recorder,
	})
	if err != nil {
		return nil, fmt.Errorf("ワークフローの初期化に失敗したのだ: %w", err)
	}
	a.manager = manager
	return a, nil
}

func (a *app) newBackend() (credential.Backend, error) {
	switch a.cfg.CredentialBackend {
	case config.BackendFile, "":
		return credential.NewFileBackend(a.cfg.CredentialDir, a.cfg.CredentialKey)
	case config.BackendRedis:
		if a.cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis バックエンドには --redis-addr が必要なのだ")
		}
		client := redis.NewClient(&redis.Options{
			Addr:         a.cfg.RedisAddr,
			Password:     a.cfg.RedisPassword,
			DB:           a.cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		a.closers = append(a.closers, client.Close)
		return credential.NewRedisBackend(client, a.cfg.CredentialKey)
	default:
		return nil, fmt.Errorf("未知のキー保存先なのだ: %q", a.cfg.CredentialBackend)
	}
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c()
	}
}
