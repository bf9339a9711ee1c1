package booking

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
)

// ReferenceGenerator produces PREFIX-YYYYMMDD-XXXX references where XXXX is
// four random upper-case hex characters.  Uniqueness is not guaranteed; the
// finalizer retries on collision.
type ReferenceGenerator struct {
	prefix string
	rand   io.Reader
}

func NewReferenceGenerator(prefix string) *ReferenceGenerator {
	return &ReferenceGenerator{prefix: strings.ToUpper(prefix), rand: rand.Reader}
}

func (g *ReferenceGenerator) New(now time.Time) (string, error) {
	var b [2]byte
	if _, err := io.ReadFull(g.rand, b[:]); err != nil {
		return "", fmt.Errorf("could not read random bytes: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", g.prefix, now.UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(b[:]))), nil
}
