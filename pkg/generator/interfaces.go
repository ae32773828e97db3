package generator

import (
	"context"

	"github.com/shouni/go-bizplan-kit/pkg/domain"
)

// ImagesGenerator は企業情報から説明用の画像群を生成します。失敗した画像は結果から除かれます。
type ImagesGenerator interface {
	Generate(ctx context.Context, apiKey string, info domain.CompanyInfo) []domain.GeneratedImage
}

// InvalidKeyChecker は最近無効と判定されたキーを判別します。
type InvalidKeyChecker interface {
	KnownInvalid(key string) bool
}

// ImageObserver は画像プロンプトごとの結果を受け取ります。
type ImageObserver interface {
	ObserveImage(kind domain.ImageKind, err error)
}
