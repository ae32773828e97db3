package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound は保存先にキーが存在しないことを表します。
var ErrNotFound = errors.New("credential not found")

// Backend はユーザーが保存した API キー1件分の永続化スロットです。
type Backend interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, key string) error
	Delete(ctx context.Context) error
}

// FileBackend はディレクトリ内の1ファイルにキーを保存します。
// ファイル名がスロット名、内容 (前後の空白を除く) が値になります。
type FileBackend struct {
	path string
}

// NewFileBackend は dir/name を保存先とする FileBackend を作成します。
func NewFileBackend(dir, name string) (*FileBackend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("保存先ディレクトリは必須です")
	}
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("不正なスロット名です: %q", name)
	}
	return &FileBackend{path: filepath.Join(dir, name)}, nil
}

// Path は保存先ファイルのパスを返します。
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("キーファイル %s の読み込みに失敗しました: %w", b.path, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

func (b *FileBackend) Save(_ context.Context, key string) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("保存先ディレクトリの作成に失敗しました: %w", err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(key+"\n"), 0o600); err != nil {
		return fmt.Errorf("キーファイルの書き込みに失敗しました: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("キーファイルの置き換えに失敗しました: %w", err)
	}
	return nil
}

func (b *FileBackend) Delete(_ context.Context) error {
	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("キーファイルの削除に失敗しました: %w", err)
	}
	return nil
}

// RedisBackend は Redis の1キーにスロットを置きます。複数プロセスで同じキーを共有する場合に使います。
type RedisBackend struct {
	client redis.UniversalClient
	key    string
}

// NewRedisBackend は RedisBackend を作成します。
func NewRedisBackend(client redis.UniversalClient, key string) (*RedisBackend, error) {
	if client == nil {
		return nil, fmt.Errorf("Redis クライアントは必須です")
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("Redis のキー名は必須です")
	}
	return &RedisBackend{client: client, key: key}, nil
}

func (b *RedisBackend) Load(ctx context.Context) (string, error) {
	value, err := b.client.Get(ctx, b.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("Redis からの読み込みに失敗しました: %w", err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

func (b *RedisBackend) Save(ctx context.Context, key string) error {
	if err := b.client.Set(ctx, b.key, key, 0).Err(); err != nil {
		return fmt.Errorf("Redis への書き込みに失敗しました: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context) error {
	if err := b.client.Del(ctx, b.key).Err(); err != nil {
		return fmt.Errorf("Redis からの削除に失敗しました: %w", err)
	}
	return nil
}
