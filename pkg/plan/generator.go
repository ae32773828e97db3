package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-bizplan-kit/pkg/config"
	"github.com/shouni/go-bizplan-kit/pkg/domain"
	"github.com/shouni/go-bizplan-kit/pkg/gemini"
)

// Generator はリクエスト構築から応答の検証までを1回の呼び出しで行います。
type Generator struct {
	timeout  time.Duration
	builder  *Builder
	parser   *Parser
	provider gemini.Provider
}

// NewGenerator は Generator を初期化します。
func NewGenerator(cfg config.Config, builder *Builder, parser *Parser, provider gemini.Provider) (*Generator, error) {
	if builder == nil {
		return nil, fmt.Errorf("リクエストビルダーは必須です")
	}
	if parser == nil {
		return nil, fmt.Errorf("パーサーは必須です")
	}
	if provider == nil {
		return nil, fmt.Errorf("クライアントプロバイダーは必須です")
	}
	return &Generator{
		timeout:  cfg.PlanTimeout,
		builder:  builder,
		parser:   parser,
		provider: provider,
	}, nil
}

// Generate は事業計画書を1件生成します。SDK のエラーは domain のエラー分類に変換されます。
func (g *Generator) Generate(ctx context.Context, apiKey string, info domain.CompanyInfo) (*domain.BusinessPlanData, error) {
	req, err := g.builder.Build(info)
	if err != nil {
		return nil, err
	}

	client, err := g.provider.Client(ctx, apiKey)
	if err != nil {
		return nil, gemini.Classify(err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	slog.Info("PlanGenerator: Calling Gemini API", "model", req.Model, "attachments", len(info.Attachments))
	start := time.Now()
	resp, err := client.GenerateContent(ctx, req.Model, req.Contents, req.Config)
	if err != nil {
		return nil, fmt.Errorf("事業計画書の生成に失敗しました: %w", gemini.Classify(err))
	}
	slog.Info("PlanGenerator: Response received", "elapsed", time.Since(start).Round(time.Millisecond))

	plan, err := g.parser.Parse(gemini.ResponseText(resp))
	if err != nil {
		return nil, err
	}
	return plan, nil
}
