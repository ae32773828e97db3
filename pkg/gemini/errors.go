package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shouni/go-bizplan-kit/pkg/domain"

	"google.golang.org/genai"
)

// Classify は SDK から返されたエラーを domain のエラー分類にマッピングします。
// すでに分類済みのエラーはそのまま返します。
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if isClassified(err) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyAPIError(*apiErrPtr, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: タイムアウトしました: %w", domain.ErrTransport, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrTransport, err)
}

func classifyAPIError(apiErr genai.APIError, err error) error {
	switch {
	case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrInvalidCredential, err)
	case apiErr.Code == http.StatusBadRequest && mentionsAPIKey(apiErr):
		return fmt.Errorf("%w: %w", domain.ErrInvalidCredential, err)
	default:
		return fmt.Errorf("%w: status %d: %w", domain.ErrUpstreamRejected, apiErr.Code, err)
	}
}

// mentionsAPIKey は Gemini API が不正キーに対して返す 400 (API_KEY_INVALID) を判別します。
func mentionsAPIKey(apiErr genai.APIError) bool {
	msg := strings.ToLower(apiErr.Message + " " + apiErr.Status)
	return strings.Contains(msg, "api key") || strings.Contains(msg, "api_key")
}

func isClassified(err error) bool {
	for _, target := range []error{
		domain.ErrMissingCredential,
		domain.ErrInvalidCredential,
		domain.ErrTransport,
		domain.ErrUpstreamRejected,
		domain.ErrEmptyResponse,
		domain.ErrMalformedJSON,
		domain.ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
