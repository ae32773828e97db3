package domain

import (
	"encoding/base64"
	"strings"
)

// DefaultImageMIMEType はレスポンスに MIME タイプが含まれない場合に使う値です。
const DefaultImageMIMEType = "image/png"

// ImageKind は固定プロンプト列の中での画像の役割です。
// 表示側はこの値で「コンセプト」「利用シーン」などのラベルを付けます。
type ImageKind string

const (
	ImageKindConcept   ImageKind = "concept"
	ImageKindIsometric ImageKind = "isometric"
	ImageKindUsage     ImageKind = "usage"
	ImageKindCloseUp   ImageKind = "closeup"
	ImageKindVision    ImageKind = "vision"
)

// GeneratedImage は生成された画像データとそのメタデータです。
type GeneratedImage struct {
	Kind     ImageKind
	MIMEType string
	Data     []byte
}

// DataURI は画像を data URI 形式の文字列に変換します。
func (img GeneratedImage) DataURI() string {
	mimeType := strings.TrimSpace(img.MIMEType)
	if mimeType == "" {
		mimeType = DefaultImageMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
