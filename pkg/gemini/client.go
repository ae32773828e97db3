package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"google.golang.org/genai"
)

const clientCacheCleanupInterval = 15 * time.Minute

// ContentGenerator は生成サービスへの最小限の窓口です。*genai.Models がそのまま満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Provider は API キーごとに ContentGenerator を払い出します。
type Provider interface {
	Client(ctx context.Context, apiKey string) (ContentGenerator, error)
}

// ClientProvider は genai.Client をキーごとに生成し、一定時間キャッシュする Provider です。
type ClientProvider struct {
	clients *cache.Cache
	ttl     time.Duration
}

// NewProvider は ClientProvider を初期化します。ttl が 0 以下の場合はキャッシュを期限切れにしません。
func NewProvider(ttl time.Duration) *ClientProvider {
	expiration := ttl
	if expiration <= 0 {
		expiration = cache.NoExpiration
	}
	return &ClientProvider{
		clients: cache.New(expiration, clientCacheCleanupInterval),
		ttl:     expiration,
	}
}

// Client はキャッシュ済みのクライアントを返すか、新たに genai クライアントを作成します。
func (p *ClientProvider) Client(ctx context.Context, apiKey string) (ContentGenerator, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("API キーが空です")
	}

	cacheKey := HashKey(key)
	if cached, ok := p.clients.Get(cacheKey); ok {
		if models, ok := cached.(*genai.Models); ok {
			return models, nil
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}

	p.clients.Set(cacheKey, client.Models, p.ttl)
	return client.Models, nil
}

// Forget はキーに対応するキャッシュ済みクライアントを破棄します。
func (p *ClientProvider) Forget(apiKey string) {
	p.clients.Delete(HashKey(strings.TrimSpace(apiKey)))
}

// HashKey は API キーそのものをマップのキーやログに残さないためのダイジェストを返します。
func HashKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}
