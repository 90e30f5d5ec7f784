package security

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

var (
	// ErrInvalidSignature signals a webhook signature that does not match the body.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrSignatureExpired signals a timestamped signature older than the allowed age.
	ErrSignatureExpired = errors.New("webhook signature expired")
	// ErrMalformedSignature signals a signature header that cannot be parsed.
	ErrMalformedSignature = errors.New("malformed webhook signature header")
)

// HMACHex returns the hex encoded HMAC-SHA256 of payload under key.
func HMACHex(key string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyBodySignature checks a plain hex HMAC-SHA256 signature of body.
func VerifyBodySignature(key string, body []byte, signature string) error {
	if key == "" {
		return fmt.Errorf("signing key is required")
	}
	if !equalHex(HMACHex(key, body), signature) {
		return ErrInvalidSignature
	}
	return nil
}

// TimedSignature is a parsed `time=<unix>,sig1=<hex>` header.
type TimedSignature struct {
	Timestamp int64
	Signature string
}

// ParseTimedSignature parses a `time=..,sig1=..` signature header.
func ParseTimedSignature(header string) (TimedSignature, error) {
	var out TimedSignature
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return TimedSignature{}, ErrMalformedSignature
		}
		switch key {
		case "time":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return TimedSignature{}, ErrMalformedSignature
			}
			out.Timestamp = ts
		case "sig1":
			out.Signature = value
		}
	}
	if out.Timestamp == 0 || out.Signature == "" {
		return TimedSignature{}, ErrMalformedSignature
	}
	return out, nil
}

// VerifyTimedSignature checks a `time=..,sig1=..` header signed over
// `<time>.<body>` and rejects signatures older than maxAge.
func VerifyTimedSignature(key string, body []byte, header string, maxAge time.Duration, now time.Time) error {
	if key == "" {
		return fmt.Errorf("signing key is required")
	}
	sig, err := ParseTimedSignature(header)
	if err != nil {
		return err
	}
	if maxAge > 0 && now.Sub(time.Unix(sig.Timestamp, 0)) > maxAge {
		return ErrSignatureExpired
	}
	source := make([]byte, 0, len(body)+24)
	source = append(source, strconv.FormatInt(sig.Timestamp, 10)...)
	source = append(source, '.')
	source = append(source, body...)
	if !equalHex(HMACHex(key, source), sig.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

func equalHex(expected, provided string) bool {
	provided = strings.ToLower(strings.TrimSpace(provided))
	return hmac.Equal([]byte(expected), []byte(provided))
}
