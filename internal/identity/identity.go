package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// ID computes a deterministic record identifier from the source identifier,
// the title, and an optional part index (zero for single-part sources, the
// chapter ordinal for segmented documents). The same inputs always hash to
// the same identifier, which makes the id usable as a dedup key across
// repeated runs over the same source.
func ID(source, title string, part int) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(part)))
	return hex.EncodeToString(h.Sum(nil))
}
