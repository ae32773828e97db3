package domain

import "errors"

// 生成処理のエラー分類です。各層は %w でラップして返すため、呼び出し側は errors.Is で判定します。
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrTransport         = errors.New("transport error")
	ErrUpstreamRejected  = errors.New("upstream rejected request")
	ErrEmptyResponse     = errors.New("empty response")
	ErrMalformedJSON     = errors.New("malformed json")
	ErrInvalidInput      = errors.New("invalid input")
	ErrBusy              = errors.New("generation already in progress")
)

// ErrorKind はメトリクスやログで使うエラー分類名を返します。
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrMalformedJSON):
		return "malformed_json"
	case errors.Is(err, ErrUpstreamRejected):
		return "upstream_rejected"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrBusy):
		return "busy"
	default:
		return "transport"
	}
}

// UserMessage は画面に表示するための原因メッセージを返します。
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential):
		return "API 키가 설정되지 않았습니다. 설정 메뉴에서 키를 입력해 주세요."
	case errors.Is(err, ErrInvalidCredential):
		return "유효하지 않은 API 키입니다. 키를 다시 입력해 주세요."
	case errors.Is(err, ErrEmptyResponse), errors.Is(err, ErrMalformedJSON):
		return "AI 응답을 사용할 수 없습니다. 잠시 후 다시 시도해 주세요."
	case errors.Is(err, ErrInvalidInput):
		return "입력값을 확인해 주세요: " + err.Error()
	case errors.Is(err, ErrBusy):
		return "이미 사업계획서를 생성 중입니다."
	default:
		return "네트워크 또는 서비스 오류가 발생했습니다. 다시 시도해 주세요."
	}
}
