package workflow

import (
	"context"
	"time"

	"github.com/shouni/go-bizplan-kit/pkg/config"
	"github.com/shouni/go-bizplan-kit/pkg/credential"
	"github.com/shouni/go-bizplan-kit/pkg/domain"
	"github.com/shouni/go-bizplan-kit/pkg/gemini"
	"github.com/shouni/go-bizplan-kit/pkg/generator"
	"github.com/shouni/go-bizplan-kit/pkg/metrics"
)

// PlanGenerator は事業計画書を1件生成する責務を持ちます。
type PlanGenerator interface {
	Generate(ctx context.Context, apiKey string, info domain.CompanyInfo) (*domain.BusinessPlanData, error)
}

// CredentialResolver は現在有効なキーを解決します。
type CredentialResolver interface {
	Get(ctx context.Context) (domain.Credential, bool)
}

// ManagerArgs は Manager の依存関係です。
// PlanGenerator と ImageGenerator を省略した場合は Config と Provider から既定の実装を構築します。
type ManagerArgs struct {
	Config      config.Config
	Provider    gemini.Provider
	Credentials CredentialResolver
	Validator   credential.Prober
	Recorder    *metrics.Recorder

	PlanGenerator  PlanGenerator
	ImageGenerator generator.ImagesGenerator
}

// Result は1回の生成で得られた計画書と画像です。
type Result struct {
	RequestID string
	Plan      *domain.BusinessPlanData
	// Images はプロンプト順に並んだ成功分の画像で、発行したプロンプト数以下です。
	Images  []domain.GeneratedImage
	Elapsed time.Duration
}

// DataURIs は表示層に渡すための data URI のリストを画像順で返します。
func (r *Result) DataURIs() []string {
	uris := make([]string, 0, len(r.Images))
	for _, img := range r.Images {
		uris = append(uris, img.DataURI())
	}
	return uris
}
