package prompts

import (
	"strings"
	"testing"

	"github.com/shouni/go-bizplan-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInfo() domain.CompanyInfo {
	return domain.CompanyInfo{
		CompanyName:    "주식회사 테스트",
		BusinessItem:   "AI 기반 스마트 화분",
		DevStatus:      "시제품 개발 완료",
		TargetAudience: "1인 가구",
		TeamInfo:       "하드웨어 엔지니어 2명",
		AdditionalInfo: "특허 출원 중",
	}
}

func TestBuilder_BuildUser(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	t.Run("各項目がそのまま埋め込まれる", func(t *testing.T) {
		got, err := b.BuildUser(sampleInfo())
		require.NoError(t, err)

		assert.Contains(t, got, "- 기업명: 주식회사 테스트")
		assert.Contains(t, got, "- 사업아이템: AI 기반 스마트 화분")
		assert.Contains(t, got, "- 현 개발상황: 시제품 개발 완료")
		assert.Contains(t, got, "- 주요 타겟: 1인 가구")
		assert.Contains(t, got, "- 팀 전문성: 하드웨어 엔지니어 2명")
		assert.Contains(t, got, "- 추가 정보: 특허 출원 중")
		assert.Contains(t, got, "JSON 형태로 응답하세요")
		assert.NotContains(t, got, "첨부파일")
	})

	t.Run("添付ファイルがある場合は件数を記載する", func(t *testing.T) {
		info := sampleInfo()
		info.Attachments = []domain.Attachment{
			{Data: "aGVsbG8=", MIMEType: "application/pdf"},
			{Data: "aGVsbG8=", MIMEType: "image/png"},
		}
		got, err := b.BuildUser(info)
		require.NoError(t, err)
		assert.Contains(t, got, "첨부파일: 2개")
	})

	t.Run("空の任意項目でも失敗しない", func(t *testing.T) {
		got, err := b.BuildUser(domain.CompanyInfo{CompanyName: "A", BusinessItem: "B"})
		require.NoError(t, err)
		assert.Contains(t, got, "- 추가 정보: \n")
	})
}

func TestBuilder_SystemInstruction(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	sys := b.SystemInstruction()
	assert.NotEmpty(t, sys)
	assert.Contains(t, sys, "PSST")
	assert.Contains(t, sys, "500자")
	assert.Equal(t, strings.TrimSpace(sys), sys)
}

func TestBuilder_BuildImagePrompts(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	got, err := b.BuildImagePrompts(sampleInfo())
	require.NoError(t, err)
	require.Len(t, got, ImagePromptCount())

	wantKinds := []domain.ImageKind{
		domain.ImageKindConcept,
		domain.ImageKindIsometric,
		domain.ImageKindUsage,
		domain.ImageKindCloseUp,
		domain.ImageKindVision,
	}
	for i, p := range got {
		assert.Equal(t, wantKinds[i], p.Kind, "index %d", i)
		assert.Contains(t, p.Prompt, "AI 기반 스마트 화분")
		assert.NotContains(t, p.Prompt, "{{")
	}
	assert.Contains(t, got[2].Prompt, "1인 가구")

	t.Run("ターゲット未入力時は既定の表現で補う", func(t *testing.T) {
		info := sampleInfo()
		info.TargetAudience = " "
		got, err := b.BuildImagePrompts(info)
		require.NoError(t, err)
		assert.Contains(t, got[2].Prompt, "everyday customers")
	})
}
