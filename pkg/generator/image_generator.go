package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-bizplan-kit/pkg/config"
	"github.com/shouni/go-bizplan-kit/pkg/domain"
	"github.com/shouni/go-bizplan-kit/pkg/gemini"
	"github.com/shouni/go-bizplan-kit/pkg/prompts"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ImageGenerator は固定のプロンプト列をすべて並列に発行し、成功した画像だけをプロンプト順で返します。
type ImageGenerator struct {
	cfg         config.Config
	prompts     prompts.ImagePrompts
	provider    gemini.Provider
	invalidKeys InvalidKeyChecker
	limiter     *rate.Limiter
	observer    ImageObserver
}

// ImageGeneratorArgs は ImageGenerator の依存関係です。
type ImageGeneratorArgs struct {
	Config      config.Config
	Prompts     prompts.ImagePrompts
	Provider    gemini.Provider
	InvalidKeys InvalidKeyChecker
	// Limiter は省略時に Config.RateInterval から作成されます。
	Limiter  *rate.Limiter
	Observer ImageObserver
}

// NewImageGenerator は ImageGenerator を初期化します。
func NewImageGenerator(args ImageGeneratorArgs) (*ImageGenerator, error) {
	if args.Prompts == nil {
		return nil, fmt.Errorf("画像プロンプトビルダーは必須です")
	}
	if args.Provider == nil {
		return nil, fmt.Errorf("クライアントプロバイダーは必須です")
	}

	limiter := args.Limiter
	if limiter == nil {
		limit := rate.Inf
		if args.Config.RateInterval > 0 {
			limit = rate.Every(args.Config.RateInterval)
		}
		// 1回分のプロンプトは待たずに一斉に発行し、連続した生成の間だけ間隔を空けます。
		limiter = rate.NewLimiter(limit, prompts.ImagePromptCount())
	}

	return &ImageGenerator{
		cfg:         args.Config,
		prompts:     args.Prompts,
		provider:    args.Provider,
		invalidKeys: args.InvalidKeys,
		limiter:     limiter,
		observer:    args.Observer,
	}, nil
}

// Generate は画像を生成します。このメソッドはエラーを返しません。
// キーが未設定・プレースホルダー・既知の無効キーの場合は通信せずに空を返します。
func (g *ImageGenerator) Generate(ctx context.Context, apiKey string, info domain.CompanyInfo) []domain.GeneratedImage {
	if !domain.IsUsableKey(apiKey) {
		slog.Info("ImageGenerator: No usable API key, skipping image generation")
		return nil
	}
	if g.invalidKeys != nil && g.invalidKeys.KnownInvalid(apiKey) {
		slog.Info("ImageGenerator: API key is known to be invalid, skipping image generation")
		return nil
	}

	items, err := g.prompts.BuildImagePrompts(info)
	if err != nil {
		slog.Warn("ImageGenerator: Failed to build image prompts", "error", err)
		return nil
	}

	client, err := g.provider.Client(ctx, apiKey)
	if err != nil {
		slog.Warn("ImageGenerator: Failed to initialize client", "error", err)
		return nil
	}

	slots := make([]*domain.GeneratedImage, len(items))
	var eg errgroup.Group

	for i, item := range items {
		eg.Go(func() error {
			logger := slog.With("prompt_index", i+1, "kind", item.Kind)

			img, err := g.generateOne(ctx, client, item)
			if g.observer != nil {
				g.observer.ObserveImage(item.Kind, err)
			}
			if err != nil {
				logger.Warn("Image generation failed, dropping", "error", err)
				return nil
			}
			slots[i] = img
			return nil
		})
	}
	_ = eg.Wait()

	images := make([]domain.GeneratedImage, 0, len(slots))
	for _, img := range slots {
		if img != nil {
			images = append(images, *img)
		}
	}
	slog.Info("ImageGenerator: Completed", "requested", len(items), "succeeded", len(images))
	return images
}

func (g *ImageGenerator) generateOne(ctx context.Context, client gemini.ContentGenerator, item prompts.ImagePrompt) (*domain.GeneratedImage, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("レートリミッターの待機に失敗しました: %w", err)
	}

	if g.cfg.ImageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.ImageTimeout)
		defer cancel()
	}

	contents := []*genai.Content{genai.NewContentFromText(item.Prompt, genai.RoleUser)}
	genCfg := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: g.cfg.ImageAspectRatio,
			ImageSize:   g.cfg.ImageSize,
		},
	}

	start := time.Now()
	resp, err := client.GenerateContent(ctx, g.cfg.ImageModel, contents, genCfg)
	if err != nil {
		return nil, gemini.Classify(err)
	}

	blobs := gemini.InlineBlobs(resp)
	if len(blobs) == 0 {
		return nil, fmt.Errorf("%w: 画像データが含まれていません", domain.ErrEmptyResponse)
	}

	slog.Debug("Image generated", "kind", item.Kind, "duration", time.Since(start).Round(time.Millisecond))
	mimeType := blobs[0].MIMEType
	if mimeType == "" {
		mimeType = domain.DefaultImageMIMEType
	}
	return &domain.GeneratedImage{
		Kind:     item.Kind,
		MIMEType: mimeType,
		Data:     blobs[0].Data,
	}, nil
}
