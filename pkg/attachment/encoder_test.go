package attachment

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/shouni/go-bizplan-kit/pkg/config"
	"github.com/shouni/go-bizplan-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestEncoder_Encode(t *testing.T) {
	dir := t.TempDir()
	e := NewEncoder(config.DefaultConfig())

	tests := []struct {
		name     string
		file     string
		data     []byte
		wantMIME string
	}{
		{name: "拡張子から判定", file: "deck.pdf", data: []byte("%PDF-1.7 body"), wantMIME: "application/pdf"},
		{name: "大文字の拡張子", file: "PHOTO.PNG", data: pngHeader, wantMIME: "image/png"},
		{name: "拡張子なしは内容から推定", file: "blob", data: pngHeader, wantMIME: "image/png"},
		{name: "テキストは charset を含めない", file: "memo.txt", data: []byte("hello"), wantMIME: "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.data)
			got, err := e.Encode(path)
			require.NoError(t, err)

			assert.Equal(t, tt.wantMIME, got.MIMEType)
			assert.NotContains(t, got.Data, "data:")
			decoded, err := base64.StdEncoding.DecodeString(got.Data)
			require.NoError(t, err)
			assert.Equal(t, tt.data, decoded)
		})
	}

	t.Run("上限サイズを超えるファイルは拒否", func(t *testing.T) {
		small := &Encoder{MaxBytes: 4}
		path := writeFile(t, dir, "big.bin", []byte("12345"))
		_, err := small.Encode(path)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("空のファイルは拒否", func(t *testing.T) {
		path := writeFile(t, dir, "empty.pdf", nil)
		_, err := e.Encode(path)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("存在しないファイル", func(t *testing.T) {
		_, err := e.Encode(filepath.Join(dir, "missing.pdf"))
		assert.Error(t, err)
	})
}

func TestEncoder_EncodeAll(t *testing.T) {
	dir := t.TempDir()
	e := NewEncoder(config.DefaultConfig())

	paths := []string{
		writeFile(t, dir, "a.pdf", []byte("%PDF-a")),
		filepath.Join(dir, "missing.png"),
		writeFile(t, dir, "c.png", pngHeader),
		writeFile(t, dir, "d.txt", []byte("d")),
	}

	results := e.EncodeAll(context.Background(), paths)
	require.Len(t, results, len(paths))
	for i, r := range results {
		assert.Equal(t, paths[i], r.Path, "選択順が保たれるべきです")
	}
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)

	atts := Successful(results)
	require.Len(t, atts, 3)
	assert.Equal(t, "application/pdf", atts[0].MIMEType)
	assert.Equal(t, "image/png", atts[1].MIMEType)
	assert.Equal(t, "text/plain", atts[2].MIMEType)

	t.Run("空の選択", func(t *testing.T) {
		assert.Empty(t, e.EncodeAll(context.Background(), nil))
		assert.Empty(t, Successful(nil))
	})

	t.Run("キャンセル済みのコンテキスト", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results := e.EncodeAll(ctx, paths[:1])
		assert.ErrorIs(t, results[0].Err, context.Canceled)
	})
}
