package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義
const (
	DefaultPlanModel         = "gemini-3-pro-preview"
	DefaultImageModel        = "gemini-3-pro-image-preview"
	DefaultProbeModel        = "gemini-3-flash-preview"
	DefaultMaxOutputTokens   = 32768
	DefaultThinkingBudget    = 16000
	DefaultImageAspectRatio  = "16:9"
	DefaultImageSize         = "1K"
	DefaultRateInterval      = 500 * time.Millisecond
	DefaultPlanTimeout       = 5 * time.Minute
	DefaultImageTimeout      = 2 * time.Minute
	DefaultProbeTimeout      = 30 * time.Second
	DefaultInvalidKeyTTL     = 10 * time.Minute
	DefaultClientCacheTTL    = 30 * time.Minute
	DefaultMaxAttachmentSize = 20 << 20
	DefaultCredentialBackend = BackendFile
	DefaultCredentialKey     = "gemini_api_key"
)

// 資格情報の保存先
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config は事業計画書生成の各コンポーネントを動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	PlanModel  string
	ImageModel string
	ProbeModel string

	// --- Google AI (Gemini API) Settings ---
	// EnvAPIKey は環境から与えられるデフォルトのキーです。ユーザーが保存したキーが優先されます。
	EnvAPIKey string

	// --- Generation Settings ---
	MaxOutputTokens  int32
	ThinkingBudget   int32
	ImageAspectRatio string
	ImageSize        string
	RateInterval     time.Duration

	// --- Timeouts ---
	PlanTimeout  time.Duration
	ImageTimeout time.Duration
	ProbeTimeout time.Duration

	// --- Cache ---
	InvalidKeyTTL  time.Duration
	ClientCacheTTL time.Duration

	// --- Attachments ---
	MaxAttachmentSize int64

	// --- Credential Persistence ---
	CredentialBackend string // "file" or "redis"
	CredentialDir     string
	CredentialKey     string // ファイル名または Redis のキー名
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		PlanModel:         DefaultPlanModel,
		ImageModel:        DefaultImageModel,
		ProbeModel:        DefaultProbeModel,
		MaxOutputTokens:   DefaultMaxOutputTokens,
		ThinkingBudget:    DefaultThinkingBudget,
		ImageAspectRatio:  DefaultImageAspectRatio,
		ImageSize:         DefaultImageSize,
		RateInterval:      DefaultRateInterval,
		PlanTimeout:       DefaultPlanTimeout,
		ImageTimeout:      DefaultImageTimeout,
		ProbeTimeout:      DefaultProbeTimeout,
		InvalidKeyTTL:     DefaultInvalidKeyTTL,
		ClientCacheTTL:    DefaultClientCacheTTL,
		MaxAttachmentSize: DefaultMaxAttachmentSize,
		CredentialBackend: DefaultCredentialBackend,
		CredentialDir:     defaultCredentialDir(),
		CredentialKey:     DefaultCredentialKey,
	}
}

// LoadConfig は環境変数から設定を読み込み、DefaultConfig を上書きした構造体を返します。
func LoadConfig() Config {
	cfg := DefaultConfig()
	cfg.EnvAPIKey = envutil.GetEnv("GEMINI_API_KEY", "")
	cfg.PlanModel = envutil.GetEnv("GEMINI_MODEL", cfg.PlanModel)
	cfg.ImageModel = envutil.GetEnv("GEMINI_IMAGE_MODEL", cfg.ImageModel)
	cfg.ProbeModel = envutil.GetEnv("GEMINI_PROBE_MODEL", cfg.ProbeModel)
	cfg.CredentialBackend = envutil.GetEnv("BIZPLAN_CREDENTIAL_BACKEND", cfg.CredentialBackend)
	cfg.CredentialDir = envutil.GetEnv("BIZPLAN_CREDENTIAL_DIR", cfg.CredentialDir)
	cfg.RedisAddr = envutil.GetEnv("BIZPLAN_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = envutil.GetEnv("BIZPLAN_REDIS_PASSWORD", cfg.RedisPassword)
	return cfg
}

func defaultCredentialDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".bizplan"
	}
	return filepath.Join(dir, "bizplan")
}
