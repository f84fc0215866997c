package repository

import (
	"encoding/json"
	"fmt"
)

// encodeStringSlice は文字列スライスをJSON配列文字列にエンコードする。
// weekdays/tasksカラムはTEXT列にJSON配列として格納される。
// エンコード/デコードは永続化層でのみ行い、ビジネスロジックには
// デコード済みのスライスだけを渡す。
func encodeStringSlice(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("文字列リストのエンコードに失敗しました: %w", err)
	}
	return string(b), nil
}

// decodeStringSlice はJSON配列文字列を文字列スライスにデコードする。
// 空文字列は空スライスとして扱う。
func decodeStringSlice(encoded string) ([]string, error) {
	if encoded == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(encoded), &values); err != nil {
		return nil, fmt.Errorf("文字列リストのデコードに失敗しました: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}
