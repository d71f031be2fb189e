package callcontrol

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSignature is returned for any signature or timestamp failure.
var ErrInvalidSignature = errors.New("callcontrol: invalid webhook signature")

// Header names carrying the signature material.
const (
	HeaderTimestamp = "Telnyx-Timestamp"
	HeaderSignature = "Telnyx-Signature"
)

// Verifier checks HMAC-SHA256 signatures over "timestamp.body".
type Verifier struct {
	secret  []byte
	maxSkew time.Duration
	now     func() time.Time
}

// NewVerifier returns nil when secret is empty, meaning verification is off.
func NewVerifier(secret string, maxSkew time.Duration) *Verifier {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil
	}
	if maxSkew <= 0 {
		maxSkew = 5 * time.Minute
	}
	return &Verifier{secret: []byte(secret), maxSkew: maxSkew, now: time.Now}
}

// Enabled reports whether requests must be signed.
func (v *Verifier) Enabled() bool {
	return v != nil
}

// Verify validates the signature headers against payload.
func (v *Verifier) Verify(timestamp, signature string, payload []byte) error {
	if v == nil {
		return nil
	}
	ts := strings.TrimSpace(timestamp)
	if ts == "" {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidSignature)
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}
	if diff := v.now().Sub(time.Unix(sec, 0)); diff > v.maxSkew || diff < -v.maxSkew {
		return fmt.Errorf("%w: timestamp skew %s exceeds limit", ErrInvalidSignature, diff)
	}
	actual := strings.ToLower(strings.TrimSpace(signature))
	if actual == "" {
		return fmt.Errorf("%w: missing signature", ErrInvalidSignature)
	}
	if !hmac.Equal([]byte(Sign(v.secret, ts, payload)), []byte(actual)) {
		return fmt.Errorf("%w: mismatch", ErrInvalidSignature)
	}
	return nil
}

// Sign computes the hex signature for ts and payload.
func Sign(secret []byte, ts string, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
