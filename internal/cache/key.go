package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	xdr "github.com/davecgh/go-xdr/xdr2"
)

var bufPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Key derives a cache key from the fitted-stack id and an input vector.
// The vector is XDR-encoded so the hash does not depend on float formatting.
func Key(stackID string, vec []float64) (string, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufPool.Put(buf)
	}()

	buf.WriteString(stackID)
	if _, err := xdr.Marshal(buf, vec); err != nil {
		return "", fmt.Errorf("marshal key vector: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}
