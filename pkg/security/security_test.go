package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifyBodySignature(t *testing.T) {
	body := []byte(`{"webhookId":"wh_1","event":{"activity":[]}}`)
	sig := HMACHex("alchemy-key", body)

	require.NoError(t, VerifyBodySignature("alchemy-key", body, sig))
	require.NoError(t, VerifyBodySignature("alchemy-key", body, " "+sig+" "))
	require.ErrorIs(t, VerifyBodySignature("other-key", body, sig), ErrInvalidSignature)
	require.ErrorIs(t, VerifyBodySignature("alchemy-key", []byte("tampered"), sig), ErrInvalidSignature)
	require.Error(t, VerifyBodySignature("", body, sig))
}

func TestHMACHexKnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	got := HMACHex("Jefe", []byte("what do ya want for nothing?"))
	require.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
}

func TestVerifyTimedSignature(t *testing.T) {
	body := []byte(`{"uid":"video-1","readyToStream":true}`)
	now := time.Unix(1_700_000_000, 0)
	ts := now.Add(-10 * time.Minute).Unix()
	sig := HMACHex("cf-key", []byte(fmt.Sprintf("%d.%s", ts, body)))
	header := fmt.Sprintf("time=%d,sig1=%s", ts, sig)

	require.NoError(t, VerifyTimedSignature("cf-key", body, header, time.Hour, now))
	require.ErrorIs(t, VerifyTimedSignature("cf-key", []byte("{}"), header, time.Hour, now), ErrInvalidSignature)
	require.ErrorIs(t, VerifyTimedSignature("cf-key", body, header, time.Hour, now.Add(2*time.Hour)), ErrSignatureExpired)
	require.ErrorIs(t, VerifyTimedSignature("cf-key", body, "sig1=abc", time.Hour, now), ErrMalformedSignature)
	require.ErrorIs(t, VerifyTimedSignature("cf-key", body, "time=abc,sig1=abc", time.Hour, now), ErrMalformedSignature)
}

func TestPassphraseRoundTrip(t *testing.T) {
	for _, plain := range []string{"", "7c9e6679-7425-40de-944b-e07fc1f90ae7", "exactly sixteen!"} {
		enc, err := EncryptPassphrase([]byte(plain), "encrypt-key")
		require.NoError(t, err)

		got, err := DecryptPassphrase(enc, "encrypt-key")
		require.NoError(t, err)
		require.Equal(t, plain, string(got))
	}
}

func TestDecryptPassphraseRejectsBadInput(t *testing.T) {
	enc, err := EncryptPassphrase([]byte("publish-id"), "encrypt-key")
	require.NoError(t, err)

	got, err := DecryptPassphrase(enc, "wrong-key")
	if err == nil {
		require.NotEqual(t, "publish-id", string(got))
	} else {
		require.True(t, errors.Is(err, ErrDecrypt))
	}

	_, err = DecryptPassphrase("not base64!", "encrypt-key")
	require.ErrorIs(t, err, ErrDecrypt)

	_, err = DecryptPassphrase(base64.StdEncoding.EncodeToString([]byte("plain text without salt")), "encrypt-key")
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestDeriveKeyIVIsDeterministic(t *testing.T) {
	key, iv := deriveKeyIV([]byte("password"), []byte{0, 1, 2, 3, 4, 5, 6, 7})
	require.Len(t, key, 32)
	require.Len(t, iv, 16)
	again, againIV := deriveKeyIV([]byte("password"), []byte{0, 1, 2, 3, 4, 5, 6, 7})
	require.Equal(t, key, again)
	require.Equal(t, iv, againIV)
}
