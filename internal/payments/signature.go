package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the provider header carrying the delivery signature
const SignatureHeader = "Stripe-Signature"

// DefaultTolerance bounds the age of a signed timestamp
const DefaultTolerance = 5 * time.Minute

const signatureScheme = "v1"

// VerifySignature checks header ("t=<unix>,v1=<hex>[,v1=<hex>...]") against an
// HMAC-SHA256 of "<t>.<body>" keyed by secret. The body must be the raw bytes
// received on the wire. A non-positive tolerance disables the timestamp check.
func VerifySignature(body []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if strings.TrimSpace(secret) == "" {
		return ErrMissingSecret
	}
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingSignature
	}

	ts, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}

	if tolerance > 0 {
		delta := now.Sub(ts)
		if delta < 0 {
			delta = -delta
		}
		if delta > tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureMismatch)
		}
	}

	expected := computeSignature(ts, body, secret)
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// SignPayload builds a signature header for body as the provider would
func SignPayload(body []byte, secret string, ts time.Time) string {
	sig := computeSignature(ts, body, secret)
	return fmt.Sprintf("t=%d,%s=%s", ts.Unix(), signatureScheme, hex.EncodeToString(sig))
}

func computeSignature(ts time.Time, body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts.Unix(), 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}

func parseSignatureHeader(header string) (time.Time, [][]byte, error) {
	var (
		ts         time.Time
		haveTS     bool
		signatures [][]byte
	)

	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			unix, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return time.Time{}, nil, fmt.Errorf("invalid timestamp %q", value)
			}
			ts = time.Unix(unix, 0)
			haveTS = true
		case signatureScheme:
			sig, err := hex.DecodeString(value)
			if err != nil {
				// other entries may still match
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if !haveTS {
		return time.Time{}, nil, fmt.Errorf("timestamp is missing")
	}
	if len(signatures) == 0 {
		return time.Time{}, nil, fmt.Errorf("no %s signature", signatureScheme)
	}
	return ts, signatures, nil
}
