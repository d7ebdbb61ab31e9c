package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
)

// SignatureHeader carries the completion event signature.
const SignatureHeader = "X-Payment-Signature"

// Verifier authenticates raw webhook payloads. The header format is
// "t=<unix seconds>,v1=<hex hmac>" where the hmac is SHA-256 over
// "<t>.<raw body>" keyed with the shared signing secret. Verification
// must run against the exact request bytes; re-serialized JSON will not
// match.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier builds a Verifier for the shared secret. A zero tolerance
// disables timestamp checking.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify authenticates the payload and returns the parsed event.
// Signature failures all map to the same CodeSignature error so the
// response does not reveal whether the secret or the payload was wrong.
func (v *Verifier) Verify(rawPayload []byte, signatureHeader string) (CompletionEvent, error) {
	if len(v.secret) == 0 {
		return CompletionEvent{}, pkgerrors.New(pkgerrors.CodeInternal, "signing secret not configured")
	}

	timestamp, signature, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return CompletionEvent{}, err
	}

	if v.tolerance > 0 {
		eventTime := time.Unix(timestamp, 0)
		if delta := v.now().Sub(eventTime); delta > v.tolerance || delta < -v.tolerance {
			return CompletionEvent{}, pkgerrors.New(pkgerrors.CodeSignature, "signature timestamp outside tolerance")
		}
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(rawPayload)
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return CompletionEvent{}, pkgerrors.New(pkgerrors.CodeSignature, "signature is not valid hex")
	}
	if !hmac.Equal(expected, provided) {
		return CompletionEvent{}, pkgerrors.New(pkgerrors.CodeSignature, "signature mismatch")
	}

	return ParseEvent(rawPayload)
}

func parseSignatureHeader(header string) (int64, string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, "", pkgerrors.New(pkgerrors.CodeSignature, "missing signature header")
	}

	var timestampRaw, signature string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestampRaw = value
		case "v1":
			signature = value
		}
	}
	if timestampRaw == "" || signature == "" {
		return 0, "", pkgerrors.New(pkgerrors.CodeSignature, "malformed signature header")
	}

	timestamp, err := strconv.ParseInt(timestampRaw, 10, 64)
	if err != nil {
		return 0, "", pkgerrors.New(pkgerrors.CodeSignature, "malformed signature timestamp")
	}
	return timestamp, signature, nil
}

// Sign produces a valid signature header for the payload at the given
// time. Used by tests and local tooling.
func (v *Verifier) Sign(rawPayload []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(rawPayload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
