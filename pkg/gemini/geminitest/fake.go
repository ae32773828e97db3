// Package geminitest はテスト用の ContentGenerator と Provider の実装を提供します。
package geminitest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shouni/go-bizplan-kit/pkg/gemini"

	"google.golang.org/genai"
)

// Call は記録された1回分の GenerateContent 呼び出しです。
type Call struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// GenerateFunc は GenerateContent の応答を決める関数です。
type GenerateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Generator は呼び出しを記録しながら Fn に処理を委譲する ContentGenerator です。
type Generator struct {
	Fn GenerateFunc

	mu    sync.Mutex
	calls []Call
}

var _ gemini.ContentGenerator = (*Generator)(nil)

// GenerateContent は呼び出しを記録して Fn の結果を返します。
func (g *Generator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.mu.Lock()
	g.calls = append(g.calls, Call{Model: model, Contents: contents, Config: cfg})
	g.mu.Unlock()

	if g.Fn == nil {
		return &genai.GenerateContentResponse{}, nil
	}
	return g.Fn(ctx, model, contents, cfg)
}

// Calls は記録済みの呼び出しのコピーを返します。
func (g *Generator) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// CallsFor は指定モデルへの呼び出しだけを返します。
func (g *Generator) CallsFor(model string) []Call {
	var out []Call
	for _, c := range g.Calls() {
		if c.Model == model {
			out = append(out, c)
		}
	}
	return out
}

// Provider はどのキーに対しても同じ Generator を返す Provider です。
type Provider struct {
	Generator gemini.ContentGenerator
	Err       error

	requests atomic.Int32
	mu       sync.Mutex
	keys     []string
}

var _ gemini.Provider = (*Provider)(nil)

// Client はキーを記録して Generator を返します。
func (p *Provider) Client(_ context.Context, apiKey string) (gemini.ContentGenerator, error) {
	p.requests.Add(1)
	p.mu.Lock()
	p.keys = append(p.keys, apiKey)
	p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Generator, nil
}

// Requests は Client が呼ばれた回数を返します。
func (p *Provider) Requests() int {
	return int(p.requests.Load())
}

// Keys は Client に渡されたキーを順に返します。
func (p *Provider) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

// TextResponse はテキストを1パートだけ含む応答を作ります。
func TextResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
	}
}

// ImageResponse はインライン画像を含む応答を作ります。
func ImageResponse(mimeType string, images ...[]byte) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(images))
	for _, data := range images {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromParts(parts, genai.RoleModel),
		}},
	}
}
