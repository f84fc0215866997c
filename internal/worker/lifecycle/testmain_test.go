package lifecycle

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain はテスト終了時にゴルーチンリークを検出する。
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
