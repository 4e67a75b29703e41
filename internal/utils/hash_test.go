package utils_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

func TestFingerprintDeterministic(t *testing.T) {
	data := []byte("Order Date,SKU,Revenue\n2024-01-05,Widget,1200.50\n")
	a := utils.FingerprintBytes(data)
	b := utils.FingerprintBytes(append([]byte(nil), data...))
	if a != b {
		t.Fatalf("fingerprints differ: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == utils.FingerprintBytes(append(data, '\n')) {
		t.Fatalf("different content produced the same fingerprint")
	}
}

func TestFingerprintStreamsLargeInput(t *testing.T) {
	// larger than one chunk so several reads happen
	data := []byte(strings.Repeat("0123456789", 2000))
	got, err := utils.Fingerprint(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if got != utils.FingerprintBytes(data) {
		t.Fatalf("stream and byte fingerprints differ")
	}
	// sha256 of the empty input
	if e := utils.FingerprintBytes(nil); e != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("unexpected empty digest %s", e)
	}
}
