package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/shouni/go-bizplan-kit/pkg/domain"
)

// PlanTemplateData はユーザープロンプトのテンプレートに渡すデータ構造です。
type PlanTemplateData struct {
	CompanyName     string
	BusinessItem    string
	DevStatus       string
	TargetAudience  string
	TeamInfo        string
	AdditionalInfo  string
	AttachmentCount int
}

// ImagePrompt はテンプレートを展開した画像プロンプトです。
type ImagePrompt struct {
	Kind   domain.ImageKind
	Prompt string
}

// PlanPrompt は事業計画書生成のプロンプトを構築する契約です。
type PlanPrompt interface {
	SystemInstruction() string
	BuildUser(info domain.CompanyInfo) (string, error)
}

// ImagePrompts は固定の画像プロンプト列を構築する契約です。
type ImagePrompts interface {
	BuildImagePrompts(info domain.CompanyInfo) ([]ImagePrompt, error)
}

// Builder は埋め込みテンプレートからテキスト・画像の両プロンプトを構築します。
type Builder struct {
	system string
	user   *template.Template
	images []*template.Template
	kinds  []domain.ImageKind
}

// NewBuilder は埋め込みテンプレートを解析して Builder を初期化します。
func NewBuilder() (*Builder, error) {
	if strings.TrimSpace(PlanSystemPrompt) == "" {
		return nil, fmt.Errorf("システムプロンプト (go:embed) の読み込みに失敗しました: 内容が空です")
	}
	if strings.TrimSpace(PlanUserPrompt) == "" {
		return nil, fmt.Errorf("ユーザープロンプト (go:embed) の読み込みに失敗しました: 内容が空です")
	}

	user, err := template.New("plan_user").Option("missingkey=error").Parse(PlanUserPrompt)
	if err != nil {
		return nil, fmt.Errorf("ユーザープロンプトの解析に失敗: %w", err)
	}

	images := make([]*template.Template, 0, len(imagePromptTemplates))
	kinds := make([]domain.ImageKind, 0, len(imagePromptTemplates))
	for _, it := range imagePromptTemplates {
		tmpl, err := template.New(string(it.Kind)).Option("missingkey=error").Parse(it.Template)
		if err != nil {
			return nil, fmt.Errorf("画像プロンプト '%s' の解析に失敗: %w", it.Kind, err)
		}
		images = append(images, tmpl)
		kinds = append(kinds, it.Kind)
	}

	return &Builder{
		system: strings.TrimSpace(PlanSystemPrompt),
		user:   user,
		images: images,
		kinds:  kinds,
	}, nil
}

// SystemInstruction は役割・分量・文体を定める固定のシステム指示を返します。
func (b *Builder) SystemInstruction() string {
	return b.system
}

// BuildUser は CompanyInfo のテキスト項目をそのまま埋め込んだユーザー指示を生成します。
func (b *Builder) BuildUser(info domain.CompanyInfo) (string, error) {
	data := PlanTemplateData{
		CompanyName:     info.CompanyName,
		BusinessItem:    info.BusinessItem,
		DevStatus:       info.DevStatus,
		TargetAudience:  info.TargetAudience,
		TeamInfo:        info.TeamInfo,
		AdditionalInfo:  info.AdditionalInfo,
		AttachmentCount: len(info.Attachments),
	}

	var sb strings.Builder
	if err := b.user.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}
	return sb.String(), nil
}

// BuildImagePrompts は固定順のプロンプト列を businessItem と targetAudience で展開します。
func (b *Builder) BuildImagePrompts(info domain.CompanyInfo) ([]ImagePrompt, error) {
	data := struct {
		BusinessItem   string
		TargetAudience string
	}{
		BusinessItem:   strings.TrimSpace(info.BusinessItem),
		TargetAudience: strings.TrimSpace(info.TargetAudience),
	}
	if data.TargetAudience == "" {
		data.TargetAudience = "everyday customers"
	}

	out := make([]ImagePrompt, 0, len(b.images))
	for i, tmpl := range b.images {
		var sb strings.Builder
		if err := tmpl.Execute(&sb, data); err != nil {
			return nil, fmt.Errorf("画像プロンプト '%s' の実行に失敗しました: %w", b.kinds[i], err)
		}
		out = append(out, ImagePrompt{Kind: b.kinds[i], Prompt: sb.String()})
	}
	return out, nil
}

// ImagePromptCount は発行される画像プロンプトの数を返します。
func ImagePromptCount() int {
	return len(imagePromptTemplates)
}
