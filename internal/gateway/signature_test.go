package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	now := time.Now()
	header := SignPayload(payload, "whsec_abc", now)

	assert.NoError(t, VerifySignature(payload, header, "whsec_abc", DefaultTolerance, now))
}

func TestVerifySignatureRejectsTamperedPayload(t *testing.T) {
	payload := []byte(`{"amount":1000}`)
	now := time.Now()
	header := SignPayload(payload, "whsec_abc", now)

	tampered := []byte(`{"amount":9000}`)
	assert.ErrorIs(t, VerifySignature(tampered, header, "whsec_abc", DefaultTolerance, now),
		ErrInvalidSignature)
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{}`)
	now := time.Now()
	header := SignPayload(payload, "whsec_other", now)

	assert.ErrorIs(t, VerifySignature(payload, header, "whsec_abc", DefaultTolerance, now),
		ErrInvalidSignature)
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{}`)
	now := time.Now()
	header := SignPayload(payload, "whsec_abc", now.Add(-10*time.Minute))

	assert.ErrorIs(t, VerifySignature(payload, header, "whsec_abc", DefaultTolerance, now),
		ErrInvalidSignature)

	// A timestamp too far in the future is equally suspect.
	future := SignPayload(payload, "whsec_abc", now.Add(10*time.Minute))
	assert.ErrorIs(t, VerifySignature(payload, future, "whsec_abc", DefaultTolerance, now),
		ErrInvalidSignature)
}

func TestVerifySignatureRejectsMalformedHeader(t *testing.T) {
	payload := []byte(`{}`)
	now := time.Now()

	for _, header := range []string{
		"",
		"t=,v1=abc",
		"t=notanumber,v1=abc",
		"v1=abc",
		"t=1700000000",
	} {
		assert.ErrorIs(t, VerifySignature(payload, header, "whsec_abc", DefaultTolerance, now),
			ErrInvalidSignature, "header %q", header)
	}
}

func TestVerifySignatureAcceptsSecondaryMAC(t *testing.T) {
	payload := []byte(`{}`)
	now := time.Now()

	// During secret rotation the provider sends multiple v1 entries; one
	// valid MAC must be enough.
	good := SignPayload(payload, "whsec_abc", now)
	header := good + ",v1=deadbeef"
	assert.NoError(t, VerifySignature(payload, header, "whsec_abc", DefaultTolerance, now))

	header = "v1=deadbeef," + good
	assert.NoError(t, VerifySignature(payload, header, "whsec_abc", DefaultTolerance, now))
}
