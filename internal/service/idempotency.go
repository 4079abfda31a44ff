package service

import (
	"strings"
	"time"

	"facilityops/internal/model"

	"github.com/google/uuid"
)

const (
	DefaultPropertyCode      = "PROP"
	DefaultIdempotencyWindow = 10 * time.Second
	keyTimestampLayout       = "20060102150405"
	maxPropertyCodeLen       = 6
)

// idempotencyNamespace seeds the name-based UUIDs used for key suffixes.
var idempotencyNamespace = uuid.MustParse("6f0c1a52-3c1e-4d55-9a7e-2b8f4f0e9d31")

// PropertyCode returns the short code of a property: its stored code, else
// the first letters and digits of its name, else fallback.
func PropertyCode(property *model.Property, fallback string) string {
	if fallback == "" {
		fallback = DefaultPropertyCode
	}
	if property == nil {
		return fallback
	}
	if code := sanitizeCode(property.Code); code != "" {
		return code
	}
	if code := sanitizeCode(property.Name); code != "" {
		return code
	}
	return fallback
}

func sanitizeCode(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if b.Len() == maxPropertyCodeLen {
			break
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// KeyGenerator derives idempotency keys for requisition creation. Two calls
// by the same actor for the same action on the same property inside one
// window produce the same key. The code prefix is for readability only; the
// property id goes into the suffix since codes are neither unique nor untruncated.
type KeyGenerator struct {
	window time.Duration
	now    func() time.Time
}

func NewKeyGenerator(window time.Duration, now func() time.Time) *KeyGenerator {
	if window <= 0 {
		window = DefaultIdempotencyWindow
	}
	if now == nil {
		now = time.Now
	}
	return &KeyGenerator{window: window, now: now}
}

// Generate builds "<CODE>-<window start>-<suffix>". When the client supplied
// its own key the suffix is derived from it and the window is dropped, so a
// retry long after the first attempt still collides.
func (g *KeyGenerator) Generate(propertyCode string, propertyID, actorID uuid.UUID, action string, clientKey string) string {
	if clientKey = strings.TrimSpace(clientKey); clientKey != "" {
		return propertyCode + "-C-" + suffix(propertyID.String(), actorID.String(), action, clientKey)
	}
	windowStart := g.now().UTC().Truncate(g.window).Format(keyTimestampLayout)
	return propertyCode + "-" + windowStart + "-" + suffix(propertyID.String(), actorID.String(), action, windowStart)
}

func suffix(parts ...string) string {
	id := uuid.NewSHA1(idempotencyNamespace, []byte(strings.Join(parts, "|")))
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
