package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var idCounter uint64

// GenerateRunID generates an engine run id with a timestamp prefix
func GenerateRunID() string {
	return generatePrefixed("run")
}

func generatePrefixed(prefix string) string {
	timestamp := time.Now().Format("20060102-150405")
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		count := atomic.AddUint64(&idCounter, 1)
		return fmt.Sprintf("%s-%s-%x", prefix, timestamp, count)
	}
	return fmt.Sprintf("%s-%s-%s", prefix, timestamp, hex.EncodeToString(b))
}
