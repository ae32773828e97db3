package credential

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shouni/go-bizplan-kit/pkg/config"
	"github.com/shouni/go-bizplan-kit/pkg/domain"
	"github.com/shouni/go-bizplan-kit/pkg/gemini/geminitest"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// fakeProber は指定したキーだけを有効とみなす Prober です。
type fakeProber struct {
	valid   map[string]bool
	err     error
	calls   int
	invalid map[string]bool
}

func (f *fakeProber) Validate(_ context.Context, candidate string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if !f.valid[candidate] {
		return domain.ErrInvalidCredential
	}
	return nil
}

func (f *fakeProber) KnownInvalid(key string) bool { return f.invalid[key] }

func (f *fakeProber) MarkInvalid(key string) {
	if f.invalid == nil {
		f.invalid = map[string]bool{}
	}
	f.invalid[key] = true
}

func (f *fakeProber) ClearInvalid(key string) { delete(f.invalid, key) }

// failingBackend は常に読み込みに失敗する Backend です。
type failingBackend struct{}

func (failingBackend) Load(context.Context) (string, error) { return "", errors.New("disk on fire") }
func (failingBackend) Save(context.Context, string) error   { return errors.New("disk on fire") }
func (failingBackend) Delete(context.Context) error         { return errors.New("disk on fire") }

func newFileBackend(t *testing.T) *FileBackend {
	t.Helper()
	b, err := NewFileBackend(t.TempDir(), config.DefaultCredentialKey)
	require.NoError(t, err)
	return b
}

func newRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	b, err := NewRedisBackend(client, config.DefaultCredentialKey)
	require.NoError(t, err)
	return b, mr
}

func TestBackends(t *testing.T) {
	ctx := context.Background()
	redisBackend, _ := newRedisBackend(t)

	backends := map[string]Backend{
		"file":  newFileBackend(t),
		"redis": redisBackend,
	}

	for name, b := range backends {
		t.Run(name, func(t *testing.T) {
			_, err := b.Load(ctx)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, b.Save(ctx, "AIza-first"))
			got, err := b.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "AIza-first", got)

			require.NoError(t, b.Save(ctx, "AIza-second"))
			got, err = b.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "AIza-second", got)

			require.NoError(t, b.Delete(ctx))
			_, err = b.Load(ctx)
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, b.Delete(ctx), "存在しないキーの削除はエラーにしない")
		})
	}
}

func TestFileBackend_Permissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	b, err := NewFileBackend(dir, "gemini_api_key")
	require.NoError(t, err)

	require.NoError(t, b.Save(context.Background(), "AIza-secret"))
	info, err := os.Stat(b.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = NewFileBackend(dir, "../escape")
	assert.Error(t, err)
}

func TestRedisBackend_StoresUnderConfiguredKey(t *testing.T) {
	b, mr := newRedisBackend(t)
	require.NoError(t, b.Save(context.Background(), "AIza-shared"))

	got, err := mr.Get(config.DefaultCredentialKey)
	require.NoError(t, err)
	assert.Equal(t, "AIza-shared", got)
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		stored     string
		envKey     string
		wantOK     bool
		wantKey    string
		wantSource domain.CredentialSource
	}{
		{name: "保存済みキーが優先される", stored: "user-key", envKey: "env-key", wantOK: true, wantKey: "user-key", wantSource: domain.CredentialSourceUser},
		{name: "保存がなければ環境のキー", envKey: "env-key", wantOK: true, wantKey: "env-key", wantSource: domain.CredentialSourceEnv},
		{name: "どちらもなければ未設定", wantOK: false},
		{name: "環境のキーが undefined なら未設定", envKey: "undefined", wantOK: false},
		{name: "保存済みキーが undefined なら環境のキー", stored: "undefined", envKey: "env-key", wantOK: true, wantKey: "env-key", wantSource: domain.CredentialSourceEnv},
		{name: "空白のみの環境のキーは未設定", envKey: "   ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFileBackend(t)
			if tt.stored != "" {
				require.NoError(t, b.Save(ctx, tt.stored))
			}
			s, err := NewStore(b, &fakeProber{}, tt.envKey)
			require.NoError(t, err)

			cred, ok := s.Get(ctx)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, cred.Key)
			assert.Equal(t, tt.wantSource, cred.Source)
		})
	}

	t.Run("読み込みエラー時は環境のキーにフォールバック", func(t *testing.T) {
		s, err := NewStore(failingBackend{}, &fakeProber{}, "env-key")
		require.NoError(t, err)
		cred, ok := s.Get(ctx)
		assert.True(t, ok)
		assert.Equal(t, domain.CredentialSourceEnv, cred.Source)
	})
}

func TestStore_SetAndClear(t *testing.T) {
	ctx := context.Background()

	t.Run("有効なキーは保存され、以降の Get で返る", func(t *testing.T) {
		prober := &fakeProber{valid: map[string]bool{"good-key": true}}
		s, err := NewStore(newFileBackend(t), prober, "env-key")
		require.NoError(t, err)

		require.NoError(t, s.Set(ctx, "  good-key  "))
		cred, ok := s.Get(ctx)
		require.True(t, ok)
		assert.Equal(t, "good-key", cred.Key)
		assert.Equal(t, domain.CredentialSourceUser, cred.Source)

		require.NoError(t, s.Clear(ctx))
		cred, ok = s.Get(ctx)
		require.True(t, ok)
		assert.Equal(t, "env-key", cred.Key)
	})

	t.Run("無効なキーでは保存済みの値が変わらない", func(t *testing.T) {
		prober := &fakeProber{valid: map[string]bool{"good-key": true}}
		s, err := NewStore(newFileBackend(t), prober, "")
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, "good-key"))

		err = s.Set(ctx, "bad-key")
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)

		cred, ok := s.Get(ctx)
		require.True(t, ok)
		assert.Equal(t, "good-key", cred.Key)
	})

	t.Run("通信エラーも保存しない", func(t *testing.T) {
		prober := &fakeProber{err: domain.ErrTransport}
		b := newFileBackend(t)
		s, err := NewStore(b, prober, "")
		require.NoError(t, err)

		assert.ErrorIs(t, s.Set(ctx, "any-key"), domain.ErrTransport)
		_, err = b.Load(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("空のキーは疎通確認せずに拒否", func(t *testing.T) {
		prober := &fakeProber{}
		s, err := NewStore(newFileBackend(t), prober, "")
		require.NoError(t, err)

		assert.ErrorIs(t, s.Set(ctx, " "), domain.ErrMissingCredential)
		assert.ErrorIs(t, s.Set(ctx, "undefined"), domain.ErrMissingCredential)
		assert.Zero(t, prober.calls)
	})
}

type probeCounter struct{ results []error }

func (p *probeCounter) ObserveProbe(err error) { p.results = append(p.results, err) }

func TestValidator_Validate(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()

	newValidator := func(t *testing.T, fn geminitest.GenerateFunc) (*Validator, *geminitest.Generator, *probeCounter) {
		t.Helper()
		gen := &geminitest.Generator{Fn: fn}
		obs := &probeCounter{}
		v, err := NewValidator(cfg, &geminitest.Provider{Generator: gen}, obs)
		require.NoError(t, err)
		return v, gen, obs
	}

	t.Run("応答テキストがあれば有効", func(t *testing.T) {
		v, gen, obs := newValidator(t, func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return geminitest.TextResponse("Hello!"), nil
		})
		require.NoError(t, v.Validate(ctx, "good-key"))

		calls := gen.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, cfg.ProbeModel, calls[0].Model)
		assert.Equal(t, "hi", calls[0].Contents[0].Parts[0].Text)
		assert.Nil(t, calls[0].Config, "疎通確認にはスキーマや出力設定を付けない")
		assert.False(t, v.KnownInvalid("good-key"))
		assert.Equal(t, []error{nil}, obs.results)
	})

	t.Run("拒否されたキーは無効として記憶される", func(t *testing.T) {
		v, gen, _ := newValidator(t, func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, genai.APIError{Code: 400, Message: "API key not valid. Please pass a valid API key."}
		})
		err := v.Validate(ctx, "bad-key")
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)
		assert.True(t, v.KnownInvalid("bad-key"))
		assert.Len(t, gen.Calls(), 1, "自動リトライはしない")
	})

	t.Run("空の応答は失敗だが無効とは記憶しない", func(t *testing.T) {
		v, _, _ := newValidator(t, func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		})
		assert.ErrorIs(t, v.Validate(ctx, "silent-key"), domain.ErrInvalidCredential)
		assert.False(t, v.KnownInvalid("silent-key"))
	})

	t.Run("ClearInvalid で記憶が消える", func(t *testing.T) {
		v, gen, _ := newValidator(t, nil)
		v.MarkInvalid(" cleared-key ")
		require.True(t, v.KnownInvalid("cleared-key"))
		v.ClearInvalid("cleared-key")
		assert.False(t, v.KnownInvalid("cleared-key"))
		assert.Empty(t, gen.Calls())
	})

	t.Run("通信エラーは無効として記憶しない", func(t *testing.T) {
		v, _, _ := newValidator(t, func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("no route to host")
		})
		assert.ErrorIs(t, v.Validate(ctx, "maybe-key"), domain.ErrTransport)
		assert.False(t, v.KnownInvalid("maybe-key"))
	})

	t.Run("成功すると無効の記憶が消える", func(t *testing.T) {
		v, _, _ := newValidator(t, func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return geminitest.TextResponse("ok"), nil
		})
		v.MarkInvalid("flaky-key")
		require.True(t, v.KnownInvalid("flaky-key"))
		require.NoError(t, v.Validate(ctx, "flaky-key"))
		assert.False(t, v.KnownInvalid("flaky-key"))
	})

	t.Run("プレースホルダーは通信せずに拒否", func(t *testing.T) {
		v, gen, _ := newValidator(t, nil)
		assert.ErrorIs(t, v.Validate(ctx, "undefined"), domain.ErrMissingCredential)
		assert.Empty(t, gen.Calls())
	})
}
