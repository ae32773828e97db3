package attachment

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-bizplan-kit/pkg/config"
	"github.com/shouni/go-bizplan-kit/pkg/domain"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Result は1ファイル分のエンコード結果です。Err が nil のときだけ Attachment が有効です。
type Result struct {
	Path       string
	Attachment domain.Attachment
	Err        error
}

// Encoder はユーザーが選択したファイルを送信可能な添付データに変換します。
type Encoder struct {
	MaxBytes    int64
	Concurrency int
}

// NewEncoder は設定の上限サイズで Encoder を初期化します。
func NewEncoder(cfg config.Config) *Encoder {
	maxBytes := cfg.MaxAttachmentSize
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxAttachmentSize
	}
	return &Encoder{MaxBytes: maxBytes, Concurrency: defaultConcurrency}
}

// Encode はファイル全体を読み込み、data URI プレフィックスを含まない base64 ペイロードにします。
// MIME タイプは拡張子から判定し、判定できない場合は内容から推定します。
func (e *Encoder) Encode(path string) (domain.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("添付ファイル %s を開けません: %w", path, err)
	}
	if info.IsDir() {
		return domain.Attachment{}, fmt.Errorf("%w: %s はディレクトリです", domain.ErrInvalidInput, path)
	}
	if e.MaxBytes > 0 && info.Size() > e.MaxBytes {
		return domain.Attachment{}, fmt.Errorf("%w: %s のサイズ (%d bytes) が上限 (%d bytes) を超えています", domain.ErrInvalidInput, path, info.Size(), e.MaxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("添付ファイル %s の読み込みに失敗しました: %w", path, err)
	}
	if len(data) == 0 {
		return domain.Attachment{}, fmt.Errorf("%w: %s は空のファイルです", domain.ErrInvalidInput, path)
	}

	return domain.Attachment{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: detectMIMEType(path, data),
	}, nil
}

// EncodeAll は複数ファイルを並行してエンコードします。
// 結果は選択順に並び、1ファイルの失敗は他のファイルに影響しません。
func (e *Encoder) EncodeAll(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	if len(paths) == 0 {
		return results
	}

	limit := e.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var eg errgroup.Group
	eg.SetLimit(limit)
	for i, path := range paths {
		eg.Go(func() error {
			results[i].Path = path
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			att, err := e.Encode(path)
			if err != nil {
				slog.Warn("添付ファイルのエンコードに失敗しました", "path", path, "error", err)
				results[i].Err = err
				return nil
			}
			results[i].Attachment = att
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// Successful は成功した結果だけを選択順のまま取り出します。
func Successful(results []Result) []domain.Attachment {
	out := make([]domain.Attachment, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Attachment)
		}
	}
	return out
}

func detectMIMEType(path string, data []byte) string {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			return mediaType
		}
		return byExt
	}
	sniffed := http.DetectContentType(data)
	if mediaType, _, err := mime.ParseMediaType(sniffed); err == nil {
		return mediaType
	}
	return sniffed
}
