package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-bizplan-kit/pkg/domain"
)

// Store はユーザーが保存したキーと環境のデフォルトキーから、現在有効なキーを解決します。
type Store struct {
	backend   Backend
	validator Prober
	envKey    string
}

// NewStore は Store を初期化します。envKey が空またはプレースホルダーの場合は「デフォルトなし」として扱います。
func NewStore(backend Backend, validator Prober, envKey string) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("保存先バックエンドは必須です")
	}
	if validator == nil {
		return nil, fmt.Errorf("キーバリデーターは必須です")
	}
	return &Store{
		backend:   backend,
		validator: validator,
		envKey:    strings.TrimSpace(envKey),
	}, nil
}

// Get は保存済みのユーザーキー、環境のデフォルトキーの順に解決します。どちらもなければ false を返します。
// 保存先の読み込みエラーは警告として記録し、環境のデフォルトキーにフォールバックします。
func (s *Store) Get(ctx context.Context) (domain.Credential, bool) {
	stored, err := s.backend.Load(ctx)
	switch {
	case err == nil && domain.IsUsableKey(stored):
		return domain.Credential{Key: stored, Source: domain.CredentialSourceUser}, true
	case err != nil && !errors.Is(err, ErrNotFound):
		slog.Warn("保存済みキーの読み込みに失敗しました。デフォルトキーを使用します", "error", err)
	}

	if domain.IsUsableKey(s.envKey) {
		return domain.Credential{Key: s.envKey, Source: domain.CredentialSourceEnv}, true
	}
	return domain.Credential{}, false
}

// Set は候補キーを疎通確認し、成功した場合にだけ保存します。
// 失敗した場合は分類済みのエラーを返し、既存のスロットには触れません。
func (s *Store) Set(ctx context.Context, candidate string) error {
	key := strings.TrimSpace(candidate)
	if !domain.IsUsableKey(key) {
		return fmt.Errorf("%w: 保存するキーが空です", domain.ErrMissingCredential)
	}

	if err := s.validator.Validate(ctx, key); err != nil {
		return err
	}

	if err := s.backend.Save(ctx, key); err != nil {
		return fmt.Errorf("キーの保存に失敗しました: %w", err)
	}
	slog.Info("API キーを保存しました", "key", domain.MaskKey(key))
	return nil
}

// Clear は保存済みのキーを削除します。以降は環境のデフォルトキー (あれば) に戻ります。
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx); err != nil {
		return fmt.Errorf("キーの削除に失敗しました: %w", err)
	}
	slog.Info("保存済みの API キーを削除しました")
	return nil
}
