// Package keygen generates storage keys for uploads that arrive without a filename.
package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Generate creates a new unique upload key ending in ext.
// Format: upload-<timestamp>-<random><ext>
// Example: upload-1701432000-a1b2c3d4.png
func Generate(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	timestamp := time.Now().Unix()
	random := make([]byte, 4)
	if _, err := rand.Read(random); err != nil {
		// Fallback to nanoseconds if crypto/rand fails
		return fmt.Sprintf("upload-%d%s", time.Now().UnixNano(), ext)
	}
	return fmt.Sprintf("upload-%d-%s%s", timestamp, hex.EncodeToString(random), ext)
}
