package ethsig

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"
)

const loginMessage = "Welcome to clipstream, sign this message to continue."

func TestPublicKeyAddressKnownKey(t *testing.T) {
	raw, err := hex.DecodeString(strings.Repeat("0", 63) + "1")
	require.NoError(t, err)
	key := secp256k1.PrivKeyFromBytes(raw)

	require.Equal(t, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", PublicKeyAddress(key.PubKey()))
}

func TestSignRecoverRoundTrip(t *testing.T) {
	resolver, err := NewResolver(loginMessage)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		key, err := secp256k1.GeneratePrivateKey()
		require.NoError(t, err)

		sig := Sign(loginMessage, key)
		got, err := resolver.RecoverAddress(sig)
		require.NoError(t, err)
		require.Equal(t, PublicKeyAddress(key.PubKey()), got)
		require.Equal(t, strings.ToLower(got), got)
	}
}

func TestRecoverAcceptsZeroBasedV(t *testing.T) {
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	sig := Sign(loginMessage, key)
	raw, err := hex.DecodeString(strings.TrimPrefix(sig, "0x"))
	require.NoError(t, err)
	raw[64] -= 27

	got, err := RecoverAddress(loginMessage, hex.EncodeToString(raw))
	require.NoError(t, err)
	require.Equal(t, PublicKeyAddress(key.PubKey()), got)
}

func TestRecoverDifferentMessageYieldsDifferentAddress(t *testing.T) {
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	sig := Sign("another message", key)
	got, err := RecoverAddress(loginMessage, sig)
	if err == nil {
		require.NotEqual(t, PublicKeyAddress(key.PubKey()), got)
	}
}

func TestRecoverMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"not hex":   "0xzz",
		"too short": "0x" + strings.Repeat("ab", 64),
		"bad v":     "0x" + strings.Repeat("11", 64) + "05",
	}
	for name, sig := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := RecoverAddress(loginMessage, sig)
			require.Error(t, err)
		})
	}
}

func TestNewResolverRequiresMessage(t *testing.T) {
	_, err := NewResolver("")
	require.Error(t, err)
}

func TestHashMessageUsesPersonalPrefix(t *testing.T) {
	require.Equal(t, keccak256([]byte("\x19Ethereum Signed Message:\n5hello")), HashMessage("hello"))
}
