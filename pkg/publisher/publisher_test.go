package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shouni/go-bizplan-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type written struct {
	data        []byte
	contentType string
}

// memWriter は書き込まれた内容をパスごとに保持する OutputWriter です。
type memWriter struct {
	mu    sync.Mutex
	files map[string]written
	order []string
	err   error
}

func (w *memWriter) Write(_ context.Context, path string, r io.Reader, contentType string) error {
	if w.err != nil {
		return w.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files == nil {
		w.files = map[string]written{}
	}
	w.files[path] = written{data: data, contentType: contentType}
	w.order = append(w.order, path)
	return nil
}

func newTestPublisher(t *testing.T) (*Publisher, *memWriter) {
	t.Helper()
	w := &memWriter{}
	p, err := NewPublisher(w)
	require.NoError(t, err)
	return p, w
}

func TestPublisher_Publish(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	plan := &domain.BusinessPlanData{
		Summary: domain.Summary{Introduction: "소개"},
		ScaleUp: domain.ScaleUp{DetailedBudget: []domain.BudgetLineItem{{Category: "재료비", Amount: 1500000}}},
	}
	images := []domain.GeneratedImage{
		{Kind: domain.ImageKindConcept, MIMEType: "image/png", Data: []byte("png")},
		{Kind: domain.ImageKindUsage, MIMEType: "image/jpeg", Data: []byte("jpg")},
		{Kind: domain.ImageKindVision, Data: []byte("default")},
	}
	p, w := newTestPublisher(t)

	res, err := p.Publish(context.Background(), plan, images, Options{OutputDir: dir})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "plan.json"), res.PlanPath)
	planFile := w.files[res.PlanPath]
	assert.Equal(t, "application/json; charset=utf-8", planFile.contentType)
	var got domain.BusinessPlanData
	require.NoError(t, json.Unmarshal(planFile.data, &got))
	assert.Equal(t, *plan, got)

	assert.Equal(t, []string{
		filepath.Join(dir, "images", "1_concept.png"),
		filepath.Join(dir, "images", "2_usage.jpg"),
		filepath.Join(dir, "images", "3_vision.png"),
	}, res.ImagePaths)
	assert.Equal(t, []string{"images/1_concept.png", "images/2_usage.jpg", "images/3_vision.png"}, res.ImageRefs)

	assert.Equal(t, []byte("jpg"), w.files[res.ImagePaths[1]].data)
	assert.Equal(t, "image/jpeg", w.files[res.ImagePaths[1]].contentType)
	assert.Equal(t, "image/png", w.files[res.ImagePaths[2]].contentType, "MIME タイプ未指定は PNG として書き出す")
}

func TestPublisher_Publish_GCS(t *testing.T) {
	p, w := newTestPublisher(t)
	images := []domain.GeneratedImage{{Kind: domain.ImageKindConcept, MIMEType: "image/png", Data: []byte("png")}}

	res, err := p.Publish(context.Background(), &domain.BusinessPlanData{}, images, Options{OutputDir: "gs://bizplan-bucket/runs/42"})
	require.NoError(t, err)

	assert.Equal(t, "gs://bizplan-bucket/runs/42/plan.json", res.PlanPath)
	assert.Equal(t, []string{"gs://bizplan-bucket/runs/42/images/1_concept.png"}, res.ImagePaths)
	assert.Equal(t, []string{"images/1_concept.png"}, res.ImageRefs)
	assert.Equal(t, []string{res.PlanPath, res.ImagePaths[0]}, w.order)
}

func TestPublisher_Publish_NoImages(t *testing.T) {
	p, w := newTestPublisher(t)
	res, err := p.Publish(context.Background(), &domain.BusinessPlanData{}, nil, Options{OutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, res.ImagePaths)
	assert.Len(t, w.files, 1, "計画書だけが書き出される")
}

func TestPublisher_Publish_Errors(t *testing.T) {
	p, _ := newTestPublisher(t)
	ctx := context.Background()

	_, err := p.Publish(ctx, nil, nil, Options{OutputDir: t.TempDir()})
	assert.Error(t, err)

	_, err = p.Publish(ctx, &domain.BusinessPlanData{}, nil, Options{})
	assert.Error(t, err)

	_, err = p.Publish(ctx, &domain.BusinessPlanData{}, nil, Options{OutputDir: "s3://bucket/out"})
	assert.Error(t, err)

	failing, err := NewPublisher(&memWriter{err: errors.New("permission denied")})
	require.NoError(t, err)
	_, err = failing.Publish(ctx, &domain.BusinessPlanData{}, nil, Options{OutputDir: t.TempDir()})
	assert.ErrorContains(t, err, "permission denied")

	_, err = NewPublisher(nil)
	assert.Error(t, err)
}
