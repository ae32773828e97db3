package plan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shouni/go-bizplan-kit/pkg/domain"

	"github.com/xeipuuv/gojsonschema"
)

const maxReportedViolations = 3

var jsonBlockRegex = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*\\S)\\s*```$")

// Parser はサービスからの生テキストを検証し、BusinessPlanData に変換します。
type Parser struct {
	schema *gojsonschema.Schema
}

// NewParser は出力スキーマをコンパイルして Parser を初期化します。
func NewParser() (*Parser, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(JSONSchema()))
	if err != nil {
		return nil, fmt.Errorf("出力スキーマのコンパイルに失敗しました: %w", err)
	}
	return &Parser{schema: schema}, nil
}

// Parse は raw を検証し、すべての必須フィールドが揃った計画書だけを返します。
// 空の応答は ErrEmptyResponse、JSON でない応答やスキーマ違反は ErrMalformedJSON になります。
func (p *Parser) Parse(raw string) (*domain.BusinessPlanData, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: 応答テキストが空です", domain.ErrEmptyResponse)
	}
	if m := jsonBlockRegex.FindStringSubmatch(text); len(m) > 1 {
		text = m[1]
	}

	result, err := p.schema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return nil, fmt.Errorf("%w: JSON として解析できません (応答抜粋: %q): %w", domain.ErrMalformedJSON, truncate(text, 200), err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: スキーマに適合しません: %s", domain.ErrMalformedJSON, describeViolations(result.Errors()))
	}

	var plan domain.BusinessPlanData
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("%w: 計画書への変換に失敗しました: %w", domain.ErrMalformedJSON, err)
	}
	return &plan, nil
}

func describeViolations(errs []gojsonschema.ResultError) string {
	msgs := make([]string, 0, maxReportedViolations)
	for i, e := range errs {
		if i == maxReportedViolations {
			msgs = append(msgs, fmt.Sprintf("ほか %d 件", len(errs)-maxReportedViolations))
			break
		}
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}

// truncate は s を先頭 maxLen 文字（rune 単位）に切り詰めます。
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
