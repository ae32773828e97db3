package domain

import "strings"

// PlaceholderCredential は環境変数が未設定のままビルドされた場合に入り込む文字列なのだ。
const PlaceholderCredential = "undefined"

// CredentialSource は有効なキーがどこから解決されたかを表します。
type CredentialSource string

const (
	CredentialSourceUser CredentialSource = "user"
	CredentialSourceEnv  CredentialSource = "env"
)

// Credential は生成サービス用の API キーです。
type Credential struct {
	Key    string
	Source CredentialSource
}

// IsUsableKey は空文字やプレースホルダーでないキーかどうかを判定します。
func IsUsableKey(key string) bool {
	k := strings.TrimSpace(key)
	return k != "" && k != PlaceholderCredential
}

// MaskKey はログや表示用にキーの末尾4文字だけを残します。
func MaskKey(key string) string {
	k := strings.TrimSpace(key)
	if len(k) <= 4 {
		return strings.Repeat("*", len(k))
	}
	return strings.Repeat("*", len(k)-4) + k[len(k)-4:]
}
