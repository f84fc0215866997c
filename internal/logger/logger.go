// Package logger はJSON構造化ログのセットアップを提供する。
// APIサーバーとワーカーで共通のログ形式を使い、ログ基盤での集約を容易にする。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// serviceName は全ログエントリに付与されるサービス識別子。
// APIサーバーとワーカーのログを同一ストリームで区別するために使う。
const serviceName = "careman"

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// すべてのエントリにservice属性が付与される。
func Setup(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler).With(slog.String("service", serviceName))
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerがnilの場合はos.Stdoutに出力する。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w)
	slog.SetDefault(logger)
}
