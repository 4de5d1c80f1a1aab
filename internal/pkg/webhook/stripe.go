// Package webhook implements Stripe v1 webhook signature verification.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is how far a webhook timestamp may drift from now before
// the payload is rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

var (
	ErrInvalidHeader    = errors.New("webhook: invalid Stripe-Signature header")
	ErrNoValidSignature = errors.New("webhook: no valid v1 signature")
	ErrTimestampExpired = errors.New("webhook: timestamp outside tolerance")
)

// VerifyStripeSignature checks a Stripe-Signature header against the payload.
//
// The header format is "t={timestamp},v1={signature}" where signature is
// HMAC-SHA256(secret, "{timestamp}.{payload}"). Multiple v1 entries may be
// present during secret rotation; any one matching is accepted.
func VerifyStripeSignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	timestamp, signatures, err := parseHeader(header)
	if err != nil {
		return err
	}

	if tolerance > 0 {
		drift := now.Sub(time.Unix(timestamp, 0))
		if drift > tolerance || drift < -tolerance {
			return ErrTimestampExpired
		}
	}

	expected := ComputeSignature(timestamp, payload, secret)
	for _, sig := range signatures {
		raw, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			return nil
		}
	}
	return ErrNoValidSignature
}

func parseHeader(header string) (int64, []string, error) {
	var timestamp int64 = -1
	var signatures []string

	for _, pair := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidHeader
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, v)
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, ErrInvalidHeader
	}
	return timestamp, signatures, nil
}

// ComputeSignature computes the Stripe v1 HMAC-SHA256 over
// "{timestamp}.{payload}".
func ComputeSignature(timestamp int64, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}
