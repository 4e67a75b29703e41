package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// fingerprintChunk is the read size used when hashing uploads.
const fingerprintChunk = 4096

// Fingerprint streams r through SHA-256 in fixed-size chunks and returns the hex digest.
func Fingerprint(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, fingerprintChunk)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read content: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintBytes hashes an in-memory upload.
func FingerprintBytes(data []byte) string {
	// bytes.Reader never returns a non-EOF error
	fp, _ := Fingerprint(bytes.NewReader(data))
	return fp
}
