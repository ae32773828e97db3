package prompts

import (
	_ "embed"

	"github.com/shouni/go-bizplan-kit/pkg/domain"
)

var (
	//go:embed plan_system.md
	PlanSystemPrompt string
	//go:embed plan_user.md
	PlanUserPrompt string
)

// ImagePromptTemplate は固定された画像プロンプト列の1要素です。
type ImagePromptTemplate struct {
	Kind     domain.ImageKind
	Template string
}

// imagePromptTemplates は画像生成で発行するプロンプトの順序付きリストです。
// 表示側は位置でラベルを付けるため、順序を変えてはいけません。
var imagePromptTemplates = []ImagePromptTemplate{
	{
		Kind:     domain.ImageKindConcept,
		Template: `Technical concept blueprint render of {{.BusinessItem}}, clean engineering drawing style with annotated components, white background, precise linework, professional product concept sheet, high detail.`,
	},
	{
		Kind:     domain.ImageKindIsometric,
		Template: `Hyper-realistic 3D isometric rendering of {{.BusinessItem}} product design, futuristic aesthetic, cinematic studio lighting, 8K.`,
	},
	{
		Kind:     domain.ImageKindUsage,
		Template: `Realistic lifestyle photograph of {{.TargetAudience}} using {{.BusinessItem}} in an everyday setting, natural light, candid moment, shallow depth of field, professional commercial photography.`,
	},
	{
		Kind:     domain.ImageKindCloseUp,
		Template: `Detailed close-up of the user interface and hardware of {{.BusinessItem}}, sharp macro focus on controls and screen, premium materials, soft rim lighting, product advertising shot.`,
	},
	{
		Kind:     domain.ImageKindVision,
		Template: `Wide panoramic future vision scene where {{.BusinessItem}} is widely adopted by {{.TargetAudience}}, optimistic smart city atmosphere, golden hour, cinematic composition, high resolution.`,
	},
}
