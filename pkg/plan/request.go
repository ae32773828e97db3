package plan

import (
	"encoding/base64"
	"fmt"

	"github.com/shouni/go-bizplan-kit/pkg/config"
	"github.com/shouni/go-bizplan-kit/pkg/domain"
	"github.com/shouni/go-bizplan-kit/pkg/prompts"

	"google.golang.org/genai"
)

// Request は事業計画書生成のために送信する1回分のリクエストです。
type Request struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// Builder は CompanyInfo から生成リクエストを組み立てます。
type Builder struct {
	cfg     config.Config
	prompts prompts.PlanPrompt
}

// NewBuilder は Builder を初期化します。
func NewBuilder(cfg config.Config, pp prompts.PlanPrompt) (*Builder, error) {
	if pp == nil {
		return nil, fmt.Errorf("プロンプトビルダーは必須です")
	}
	return &Builder{cfg: cfg, prompts: pp}, nil
}

// Build はテキスト指示と添付ファイルを1つのユーザーコンテンツにまとめ、出力スキーマ付きの設定を返します。
// 添付ファイルはテキストの後ろに元の順序のまま並びます。
func (b *Builder) Build(info domain.CompanyInfo) (Request, error) {
	userText, err := b.prompts.BuildUser(info)
	if err != nil {
		return Request{}, fmt.Errorf("ユーザー指示の生成に失敗しました: %w", err)
	}

	parts := make([]*genai.Part, 0, len(info.Attachments)+1)
	parts = append(parts, genai.NewPartFromText(userText))
	for i, att := range info.Attachments {
		data, err := base64.StdEncoding.DecodeString(att.Data)
		if err != nil {
			return Request{}, fmt.Errorf("%w: 添付ファイル %d の base64 デコードに失敗しました: %w", domain.ErrInvalidInput, i+1, err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: att.MIMEType, Data: data},
		})
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(b.prompts.SystemInstruction(), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    ResponseSchema(),
		MaxOutputTokens:   b.cfg.MaxOutputTokens,
	}
	if b.cfg.ThinkingBudget > 0 {
		genCfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(b.cfg.ThinkingBudget)}
	}

	return Request{
		Model:    b.cfg.PlanModel,
		Contents: []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		Config:   genCfg,
	}, nil
}
