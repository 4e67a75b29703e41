package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

func TestTokenEstimates(t *testing.T) {
	ctx := "Summary: Total Sales: $12,500.00 | Transactions: 240\nTop Products: Widget ($4,000.00)\n"
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "fits", in: ctx, limit: 1500, want: ctx},
		{name: "cut", in: ctx, limit: 2, want: "Summary:"},
		{name: "zero limit", in: ctx, limit: 0, want: ""},
		{name: "multibyte", in: "€€€€€€€€", limit: 1, want: "€€€€"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := utils.TruncateToTokenLimit(tt.in, tt.limit)
			if got != tt.want {
				t.Fatalf("TruncateToTokenLimit = %q, want %q", got, tt.want)
			}
			if tt.limit > 0 && utils.CountTokens(got) > tt.limit {
				t.Fatalf("estimate %d exceeds limit %d", utils.CountTokens(got), tt.limit)
			}
		})
	}
	if utils.CountTokens("") != 0 || utils.CountTokens("hi") != 1 {
		t.Fatal("short text estimates are off")
	}
}

func TestSafeWriteFileCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "2024-03-01-market_analyst.md")
	if err := utils.SafeWriteFile(path, []byte("# Report\n")); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "# Report\n" {
		t.Fatalf("read back %q, %v", b, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
