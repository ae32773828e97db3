package plan

import (
	"strings"

	"google.golang.org/genai"
)

type property struct {
	name   string
	schema *genai.Schema
}

func prop(name string, schema *genai.Schema) property {
	return property{name: name, schema: schema}
}

func str(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func num(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Description: description}
}

func arrayOf(description string, item *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Description: description, Items: item}
}

// object はすべてのプロパティを必須とするオブジェクトスキーマを組み立てます。
func object(description string, props ...property) *genai.Schema {
	s := &genai.Schema{
		Type:             genai.TypeObject,
		Description:      description,
		Properties:       make(map[string]*genai.Schema, len(props)),
		Required:         make([]string, 0, len(props)),
		PropertyOrdering: make([]string, 0, len(props)),
	}
	for _, p := range props {
		s.Properties[p.name] = p.schema
		s.Required = append(s.Required, p.name)
		s.PropertyOrdering = append(s.PropertyOrdering, p.name)
	}
	return s
}

// ResponseSchema は事業計画書の出力スキーマを毎回新しく生成して返します。
// 呼び出し側で変更しても他のリクエストには影響しません。
func ResponseSchema() *genai.Schema {
	marketData := object("시장 규모 데이터 포인트",
		prop("name", str("연도 또는 구분")),
		prop("value", num("시장 규모 수치")),
	)

	return object("PSST 사업계획서",
		prop("summary", object("개요",
			prop("introduction", str("아이템 소개")),
			prop("differentiation", str("차별성")),
			prop("targetMarket", str("목표 시장")),
			prop("goals", str("사업 목표")),
		)),
		prop("problem", object("문제인식",
			prop("motivation", str("창업 동기")),
			prop("purpose", str("추진 목적 및 필요성")),
		)),
		prop("solution", object("실현가능성",
			prop("devPlan", str("개발 계획")),
			prop("stepwisePlan", str("단계별 추진 계획")),
			prop("budgetTable", arrayOf("추진 일정표", object("일정 행",
				prop("item", str("추진 내용")),
				prop("period", str("추진 기간")),
				prop("content", str("세부 내용")),
			))),
			prop("customerResponse", str("고객 요구 대응 방안")),
			prop("competitorAnalysis", str("경쟁사 분석")),
		)),
		prop("scaleUp", object("성장전략",
			prop("fundingPlan", str("자금 조달 계획")),
			prop("salesPlan", str("매출 계획")),
			prop("policyFundPlan", str("정책자금 활용 계획")),
			prop("detailedBudget", arrayOf("사업비 집행 계획", object("사업비 행",
				prop("category", str("비목")),
				prop("basis", str("산출 근거")),
				prop("amount", num("금액(원)")),
			))),
			prop("marketResearchDomestic", arrayOf("국내 시장 규모", marketData)),
			prop("marketApproachDomestic", str("국내 시장 진출 전략")),
			prop("marketResearchGlobal", arrayOf("글로벌 시장 규모", cloneSchema(marketData))),
			prop("marketApproachGlobal", str("글로벌 시장 진출 전략")),
		)),
		prop("team", object("팀 구성",
			prop("capability", str("대표자 및 팀 역량")),
			prop("hiringStatus", str("인력 채용 계획")),
			prop("socialValue", str("사회적 가치 실천 계획")),
		)),
	)
}

// JSONSchema は ResponseSchema を JSON Schema (draft-07 相当) の表現に変換します。
// 受信した JSON の構造検証に使います。
func JSONSchema() map[string]any {
	return toJSONSchema(ResponseSchema())
}

func toJSONSchema(s *genai.Schema) map[string]any {
	out := map[string]any{
		"type": strings.ToLower(string(s.Type)),
	}
	switch s.Type {
	case genai.TypeObject:
		props := make(map[string]any, len(s.Properties))
		for name, child := range s.Properties {
			props[name] = toJSONSchema(child)
		}
		out["properties"] = props
		if len(s.Required) > 0 {
			required := make([]any, len(s.Required))
			for i, r := range s.Required {
				required[i] = r
			}
			out["required"] = required
		}
	case genai.TypeArray:
		if s.Items != nil {
			out["items"] = toJSONSchema(s.Items)
		}
	}
	return out
}

func cloneSchema(s *genai.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	c := *s
	if s.Items != nil {
		c.Items = cloneSchema(s.Items)
	}
	if s.Properties != nil {
		c.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			c.Properties[k] = cloneSchema(v)
		}
	}
	c.Required = append([]string(nil), s.Required...)
	c.PropertyOrdering = append([]string(nil), s.PropertyOrdering...)
	return &c
}
