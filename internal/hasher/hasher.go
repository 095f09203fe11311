// Package hasher derives short content hashes used to name compressed
// outputs and to verify them on disk.
package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// NameLen is the number of hex chars embedded in output file names.
const NameLen = 8

// ContentHash returns the hex xxHash64 of data, truncated to hexLen chars
// when 0 < hexLen < 16.
func ContentHash(data []byte, hexLen int) string {
	return truncate(xxhash.Sum64(data), hexLen)
}

// FileHash streams the file at path through xxHash64.
func FileHash(path string, hexLen int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return truncate(h.Sum64(), hexLen), nil
}

// HashedName appends the short content hash to name: "logo" becomes
// "logo.1a2b3c4d".
func HashedName(name string, data []byte) string {
	return name + "." + ContentHash(data, NameLen)
}

func truncate(sum uint64, hexLen int) string {
	full := hex.EncodeToString(binary.BigEndian.AppendUint64(nil, sum))
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
