// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService は利用者・介護者が入力する自由記述テキスト
// （活動記録のタスク、却下理由、レビューコメント）をサニタイズし、
// 保存データに HTML が混入することを防ぐ。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は自由記述テキストのサニタイズ機能のインターフェースを定義する。
// 保存前のタスク・理由・コメントに使用される。
type TextSanitizerService interface {
	// Sanitize は入力からすべてのHTMLタグを除去し、前後の空白を取り除いた
	// プレーンテキストを返す。空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string

	// SanitizeAll は各要素をSanitizeし、空になった要素を除いたスライスを返す。
	SanitizeAll(raw []string) []string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはタグを一切許可しない。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLタグを除去したプレーンテキストを返す。
func (s *textSanitizer) Sanitize(raw string) string {
	// StrictPolicyはテキストをHTMLエスケープして返すため、
	// プレーンテキストとして保存する前にエスケープを戻す。
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

// SanitizeAll は各要素をサニタイズし、空要素を除いて返す。
func (s *textSanitizer) SanitizeAll(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, r := range raw {
		if clean := s.Sanitize(r); clean != "" {
			result = append(result, clean)
		}
	}
	return result
}
