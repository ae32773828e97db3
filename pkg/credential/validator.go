package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-bizplan-kit/pkg/config"
	"github.com/shouni/go-bizplan-kit/pkg/domain"
	"github.com/shouni/go-bizplan-kit/pkg/gemini"

	"github.com/patrickmn/go-cache"
	"google.golang.org/genai"
)

const (
	probePrompt               = "hi"
	invalidKeyCleanupInterval = 5 * time.Minute
)

// Prober はキーの有効性を確認し、無効と判明したキーを記憶します。
type Prober interface {
	Validate(ctx context.Context, candidate string) error
	KnownInvalid(key string) bool
	MarkInvalid(key string)
	ClearInvalid(key string)
}

// ProbeObserver は疎通確認の結果を受け取ります。
type ProbeObserver interface {
	ObserveProbe(err error)
}

// Validator は最小限のプロンプトを送ってキーが生きているかを確認します。
type Validator struct {
	model    string
	timeout  time.Duration
	provider gemini.Provider
	invalid  *cache.Cache
	observer ProbeObserver
}

// NewValidator は Validator を初期化します。observer は nil でも構いません。
func NewValidator(cfg config.Config, provider gemini.Provider, observer ProbeObserver) (*Validator, error) {
	if provider == nil {
		return nil, fmt.Errorf("クライアントプロバイダーは必須です")
	}
	ttl := cfg.InvalidKeyTTL
	if ttl <= 0 {
		ttl = config.DefaultInvalidKeyTTL
	}
	return &Validator{
		model:    cfg.ProbeModel,
		timeout:  cfg.ProbeTimeout,
		provider: provider,
		invalid:  cache.New(ttl, invalidKeyCleanupInterval),
		observer: observer,
	}, nil
}

// Validate は candidate で1回だけ疎通確認を行います。自動リトライはしません。
// 応答テキストが空でなければ有効とみなします。
// 空の応答は拒否の証拠にならないため、失敗として返しますが無効とは記憶しません。
func (v *Validator) Validate(ctx context.Context, candidate string) error {
	err := v.probe(ctx, strings.TrimSpace(candidate))
	if v.observer != nil {
		v.observer.ObserveProbe(err)
	}
	return err
}

func (v *Validator) probe(ctx context.Context, key string) error {
	if !domain.IsUsableKey(key) {
		return fmt.Errorf("%w: キーが空です", domain.ErrMissingCredential)
	}

	client, err := v.provider.Client(ctx, key)
	if err != nil {
		return gemini.Classify(err)
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	contents := []*genai.Content{genai.NewContentFromText(probePrompt, genai.RoleUser)}
	resp, err := client.GenerateContent(ctx, v.model, contents, nil)
	if err != nil {
		classified := gemini.Classify(err)
		v.remember(key, classified)
		slog.Warn("キーの疎通確認に失敗しました", "key", domain.MaskKey(key), "kind", domain.ErrorKind(classified))
		return classified
	}

	if strings.TrimSpace(gemini.ResponseText(resp)) == "" {
		slog.Warn("疎通確認の応答が空でした", "key", domain.MaskKey(key))
		return fmt.Errorf("%w: 疎通確認の応答が空です", domain.ErrInvalidCredential)
	}

	v.ClearInvalid(key)
	slog.Info("キーの疎通確認に成功しました", "key", domain.MaskKey(key))
	return nil
}

func (v *Validator) remember(key string, err error) {
	if errors.Is(err, domain.ErrInvalidCredential) {
		v.MarkInvalid(key)
	}
}

// KnownInvalid は key が最近無効と判定されたかどうかを返します。
func (v *Validator) KnownInvalid(key string) bool {
	_, found := v.invalid.Get(gemini.HashKey(strings.TrimSpace(key)))
	return found
}

// MarkInvalid は key を一定時間「無効」として記憶します。
func (v *Validator) MarkInvalid(key string) {
	v.invalid.SetDefault(gemini.HashKey(strings.TrimSpace(key)), struct{}{})
}

// ClearInvalid は key の「無効」の記憶を消します。キーで生成が成功したときに呼ばれます。
func (v *Validator) ClearInvalid(key string) {
	v.invalid.Delete(gemini.HashKey(strings.TrimSpace(key)))
}
