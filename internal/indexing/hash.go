package indexing

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/wci/internal/types"
)

// HashContent fingerprints file content for change detection. Only the
// first HashPrefixBytes feed the hash, followed by the total length, so
// large files never pay for a full-content pass. Two files that agree
// on prefix and length collide; the watcher path tolerates that as a
// skipped no-op update.
func HashContent(data []byte) uint64 {
	prefix := data
	if len(prefix) > types.HashPrefixBytes {
		prefix = prefix[:types.HashPrefixBytes]
	}

	h := xxhash.New()
	_, _ = h.Write(prefix)

	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(len(data)))
	_, _ = h.Write(size[:])

	return h.Sum64()
}
