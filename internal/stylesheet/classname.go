package stylesheet

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Class name hash widths, tried in order when a shorter name is already
// taken by a different declaration block.
var classWidths = []int{6, 12, 64}

// ClassName returns prefix followed by the first width hex digits of the
// SHA3-256 hash of the normalized declarations.
func ClassName(prefix, normalized string, width int) string {
	sum := sha3.Sum256([]byte(normalized))
	h := hex.EncodeToString(sum[:])
	if width <= 0 || width > len(h) {
		width = len(h)
	}
	return prefix + h[:width]
}

// BlockHash returns the short hash used to identify a <style> block.
func BlockHash(text string) string {
	sum := sha3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:12]
}
