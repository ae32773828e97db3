package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shouni/go-bizplan-kit/pkg/config"
	"github.com/shouni/go-bizplan-kit/pkg/credential"
	"github.com/shouni/go-bizplan-kit/pkg/domain"
	"github.com/shouni/go-bizplan-kit/pkg/generator"
	"github.com/shouni/go-bizplan-kit/pkg/metrics"
	"github.com/shouni/go-bizplan-kit/pkg/plan"
	"github.com/shouni/go-bizplan-kit/pkg/prompts"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// clientForgetter はキャッシュ済みクライアントを破棄できる Provider が満たします。
type clientForgetter interface {
	Forget(apiKey string)
}

// Manager は計画書と画像の生成を同時に走らせ、結果を1つにまとめます。
// 同時に実行できる生成は1件だけです。
type Manager struct {
	cfg         config.Config
	credentials CredentialResolver
	validator   credential.Prober
	recorder    *metrics.Recorder
	planGen     PlanGenerator
	imageGen    generator.ImagesGenerator
	forgetter   clientForgetter

	running atomic.Bool
}

// New は依存関係を検証して Manager を初期化します。
func New(args ManagerArgs) (*Manager, error) {
	if args.Provider == nil {
		return nil, fmt.Errorf("Provider は必須です")
	}
	if args.Credentials == nil {
		return nil, fmt.Errorf("Credentials は必須です")
	}
	if args.Validator == nil {
		return nil, fmt.Errorf("Validator は必須です")
	}

	var pb *prompts.Builder
	if args.PlanGenerator == nil || args.ImageGenerator == nil {
		var err error
		pb, err = prompts.NewBuilder()
		if err != nil {
			return nil, fmt.Errorf("プロンプトビルダーの初期化に失敗しました: %w", err)
		}
	}

	planGen := args.PlanGenerator
	if planGen == nil {
		g, err := buildPlanGenerator(args, pb)
		if err != nil {
			return nil, err
		}
		planGen = g
	}

	imageGen := args.ImageGenerator
	if imageGen == nil {
		g, err := generator.NewImageGenerator(generator.ImageGeneratorArgs{
			Config:      args.Config,
			Prompts:     pb,
			Provider:    args.Provider,
			InvalidKeys: args.Validator,
			Observer:    args.Recorder,
		})
		if err != nil {
			return nil, fmt.Errorf("画像生成エンジンの初期化に失敗しました: %w", err)
		}
		imageGen = g
	}

	forgetter, _ := args.Provider.(clientForgetter)

	return &Manager{
		cfg:         args.Config,
		credentials: args.Credentials,
		validator:   args.Validator,
		recorder:    args.Recorder,
		planGen:     planGen,
		imageGen:    imageGen,
		forgetter:   forgetter,
	}, nil
}

func buildPlanGenerator(args ManagerArgs, pb *prompts.Builder) (*plan.Generator, error) {
	builder, err := plan.NewBuilder(args.Config, pb)
	if err != nil {
		return nil, fmt.Errorf("リクエストビルダーの初期化に失敗しました: %w", err)
	}
	parser, err := plan.NewParser()
	if err != nil {
		return nil, err
	}
	g, err := plan.NewGenerator(args.Config, builder, parser, args.Provider)
	if err != nil {
		return nil, fmt.Errorf("計画書生成エンジンの初期化に失敗しました: %w", err)
	}
	return g, nil
}

// Generate は Credential Store から有効なキーを解決して Run を呼び出します。
func (m *Manager) Generate(ctx context.Context, info domain.CompanyInfo) (*Result, error) {
	cred, ok := m.credentials.Get(ctx)
	if !ok {
		err := fmt.Errorf("%w: 有効な API キーがありません", domain.ErrMissingCredential)
		m.recorder.ObserveGeneration(err, 0, 0)
		return nil, err
	}
	slog.Info("API キーを解決しました", "source", cred.Source, "key", domain.MaskKey(cred.Key))
	return m.Run(ctx, info, cred.Key)
}

// Run は計画書と画像を並行して生成し、両方の完了を待ってから結果を返します。
// 計画書が失敗した場合は画像を破棄してエラーを返します。画像は成功した分だけを返します。
func (m *Manager) Run(ctx context.Context, info domain.CompanyInfo, apiKey string) (*Result, error) {
	if !domain.IsUsableKey(apiKey) {
		err := fmt.Errorf("%w: API キーが設定されていません", domain.ErrMissingCredential)
		m.recorder.ObserveGeneration(err, 0, 0)
		return nil, err
	}
	if !m.running.CompareAndSwap(false, true) {
		return nil, domain.ErrBusy
	}
	defer m.running.Store(false)

	if err := info.Validate(); err != nil {
		m.recorder.ObserveGeneration(err, 0, 0)
		return nil, err
	}

	requestID := uuid.NewString()
	logger := slog.With("request_id", requestID)
	logger.Info("Generation started",
		"company", info.CompanyName,
		"attachments", len(info.Attachments),
		"key", domain.MaskKey(apiKey),
	)

	done := m.recorder.GenerationStarted()
	defer done()
	start := time.Now()

	var (
		planData *domain.BusinessPlanData
		planErr  error
		images   []domain.GeneratedImage
	)

	// 片方の失敗でもう片方をキャンセルしないため、WithContext は使いません。
	var eg errgroup.Group
	eg.Go(func() error {
		planData, planErr = m.planGen.Generate(ctx, apiKey, info)
		return nil
	})
	eg.Go(func() error {
		images = m.imageGen.Generate(ctx, apiKey, info)
		return nil
	})
	_ = eg.Wait()

	elapsed := time.Since(start)
	if planErr != nil {
		m.handlePlanFailure(apiKey, planErr)
		logger.Error("Generation failed",
			"kind", domain.ErrorKind(planErr),
			"discarded_images", len(images),
			"elapsed", elapsed.Round(time.Millisecond),
			"error", planErr,
		)
		m.recorder.ObserveGeneration(planErr, elapsed, 0)
		return nil, planErr
	}

	// 計画書が通ったキーは無効ではありません。
	m.validator.ClearInvalid(apiKey)

	logger.Info("Generation completed", "images", len(images), "elapsed", elapsed.Round(time.Millisecond))
	m.recorder.ObserveGeneration(nil, elapsed, len(images))

	return &Result{
		RequestID: requestID,
		Plan:      planData,
		Images:    images,
		Elapsed:   elapsed,
	}, nil
}

// Busy は生成が進行中かどうかを返します。
func (m *Manager) Busy() bool {
	return m.running.Load()
}

func (m *Manager) handlePlanFailure(apiKey string, err error) {
	if !errors.Is(err, domain.ErrInvalidCredential) {
		return
	}
	m.validator.MarkInvalid(apiKey)
	if m.forgetter != nil {
		m.forgetter.Forget(apiKey)
	}
}
