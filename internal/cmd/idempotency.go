package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

func newIdempotencyKey() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("pactcli_%d", time.Now().UnixNano())
	}
	return "pactcli_" + hex.EncodeToString(buf)
}
