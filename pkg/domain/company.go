package domain

import (
	"fmt"
	"strings"
)

// Attachment はユーザーが選択したファイルを送信可能な形にしたものです。
// Data は data URI プレフィックスを含まない base64 ペイロードです。
type Attachment struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// CompanyInfo はフォームから入力された企業情報です。
// 1回の生成リクエストの間は変更されません。
type CompanyInfo struct {
	CompanyName    string       `json:"companyName"`
	BusinessItem   string       `json:"businessItem"`
	DevStatus      string       `json:"devStatus"`
	TargetAudience string       `json:"targetAudience"`
	TeamInfo       string       `json:"teamInfo"`
	AdditionalInfo string       `json:"additionalInfo"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// Validate は入力フォームで必須とされている項目が入力されているかを確認します。
// AdditionalInfo と添付ファイルは任意です。
func (c CompanyInfo) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"companyName", c.CompanyName},
		{"businessItem", c.BusinessItem},
		{"devStatus", c.DevStatus},
		{"targetAudience", c.TargetAudience},
		{"teamInfo", c.TeamInfo},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: 必須項目が未入力です (%s)", ErrInvalidInput, strings.Join(missing, ", "))
	}

	for i, att := range c.Attachments {
		if att.Data == "" || att.MIMEType == "" {
			return fmt.Errorf("%w: 添付ファイル %d のデータまたは MIME タイプが空です", ErrInvalidInput, i+1)
		}
	}
	return nil
}
