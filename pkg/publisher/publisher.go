package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/shouni/go-bizplan-kit/pkg/domain"

	"github.com/shouni/go-utils/urlpath"
)

const (
	DefaultPlanFileName = "plan.json"
	DefaultImageDirName = "images"

	planContentType = "application/json; charset=utf-8"
)

// OutputWriter はローカルパスまたは gs:// URI にデータを書き込みます。
// remoteio.OutputWriter がこれを満たします。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	// OutputDir はローカルのディレクトリまたは gs://bucket/prefix です。
	OutputDir string
}

// PublishResult はパブリッシュ処理で書き出されたファイルの情報を保持します。
type PublishResult struct {
	PlanPath   string
	ImagePaths []string
	// ImageRefs は PlanPath からの相対パスで、表示側がラベル付けに使う順序のままです。
	ImageRefs []string
}

// Publisher は生成結果をレンダリング・書き出し担当へ渡すために保存します。
// レイアウトや PDF 化は行いません。
type Publisher struct {
	writer OutputWriter
}

// NewPublisher は writer を使う Publisher を作成します。
func NewPublisher(writer OutputWriter) (*Publisher, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer は必須です")
	}
	return &Publisher{writer: writer}, nil
}

// Publish は計画書を plan.json に、画像を images/<n>_<kind>.<ext> に書き出します。
func (p *Publisher) Publish(ctx context.Context, plan *domain.BusinessPlanData, images []domain.GeneratedImage, opts Options) (PublishResult, error) {
	result := PublishResult{}
	if plan == nil {
		return result, fmt.Errorf("計画書が空です")
	}
	outDir := strings.TrimSpace(opts.OutputDir)
	if outDir == "" {
		return result, fmt.Errorf("出力ディレクトリは必須です")
	}
	if urlpath.IsS3URI(outDir) {
		return result, fmt.Errorf("S3 への出力には対応していません: %s", outDir)
	}

	planPath, err := urlpath.ResolvePath(outDir, DefaultPlanFileName)
	if err != nil {
		return result, err
	}
	imgDir, err := urlpath.ResolvePath(outDir, DefaultImageDirName)
	if err != nil {
		return result, err
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return result, fmt.Errorf("計画書のシリアライズに失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, planPath, bytes.NewReader(append(data, '\n')), planContentType); err != nil {
		return result, fmt.Errorf("計画書の書き込みに失敗しました: %w", err)
	}
	result.PlanPath = planPath

	paths, names, err := p.saveImages(ctx, images, imgDir)
	if err != nil {
		return result, fmt.Errorf("画像の書き込みに失敗しました: %w", err)
	}
	result.ImagePaths = paths
	for _, name := range names {
		result.ImageRefs = append(result.ImageRefs, path.Join(DefaultImageDirName, name))
	}

	slog.Info("Publish completed", "plan", planPath, "images", len(paths))
	return result, nil
}

func (p *Publisher) saveImages(ctx context.Context, images []domain.GeneratedImage, baseDir string) ([]string, []string, error) {
	var paths, names []string
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return paths, names, err
		}
		if len(img.Data) == 0 {
			continue
		}
		contentType := img.MIMEType
		if contentType == "" {
			contentType = domain.DefaultImageMIMEType
		}
		name := fmt.Sprintf("%d_%s%s", i+1, img.Kind, extensionFor(contentType))
		fullPath, err := urlpath.ResolvePath(baseDir, name)
		if err != nil {
			return paths, names, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
		}
		if err := p.writer.Write(ctx, fullPath, bytes.NewReader(img.Data), contentType); err != nil {
			return paths, names, fmt.Errorf("%s: %w", fullPath, err)
		}
		paths = append(paths, fullPath)
		names = append(names, name)
	}
	return paths, names, nil
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "", "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
