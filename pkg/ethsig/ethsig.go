// Package ethsig recovers wallet addresses from Ethereum personal-message
// signatures over the process-wide login message.
package ethsig

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

const (
	signatureLen    = 65
	personalPrefix  = "\x19Ethereum Signed Message:\n"
	compactMagic    = 27
	addressByteSize = 20
)

var (
	errMessageRequired  = errors.New("signed message is required")
	errMalformed        = errors.New("malformed signature")
	errInvalidRecoveryV = errors.New("invalid signature recovery id")
)

// Resolver recovers signer addresses for a fixed message.
type Resolver struct {
	message string
}

// NewResolver builds a resolver bound to message.
func NewResolver(message string) (*Resolver, error) {
	if message == "" {
		return nil, errMessageRequired
	}
	return &Resolver{message: message}, nil
}

// RecoverAddress returns the lowercase 0x address that produced signature.
func (r *Resolver) RecoverAddress(signature string) (string, error) {
	if r == nil {
		return "", errMessageRequired
	}
	return RecoverAddress(r.message, signature)
}

// RecoverAddress recovers the address that signed message. The signature is
// the hex encoded r||s||v form produced by wallets, with v in {0,1,27,28}.
func RecoverAddress(message, signature string) (string, error) {
	raw, err := decodeHex(signature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errMalformed, err)
	}
	if len(raw) != signatureLen {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", errMalformed, signatureLen, len(raw))
	}

	v := raw[64]
	if v >= compactMagic {
		v -= compactMagic
	}
	if v > 1 {
		return "", errInvalidRecoveryV
	}

	compact := make([]byte, signatureLen)
	compact[0] = compactMagic + v
	copy(compact[1:], raw[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, HashMessage(message))
	if err != nil {
		return "", fmt.Errorf("recover public key: %w", err)
	}
	return PublicKeyAddress(pub), nil
}

// HashMessage applies the EIP-191 personal message envelope and keccak256.
func HashMessage(message string) []byte {
	return keccak256([]byte(personalPrefix + strconv.Itoa(len(message)) + message))
}

// PublicKeyAddress derives the lowercase 0x address of pub.
func PublicKeyAddress(pub *secp256k1.PublicKey) string {
	uncompressed := pub.SerializeUncompressed()
	digest := keccak256(uncompressed[1:])
	return "0x" + hex.EncodeToString(digest[len(digest)-addressByteSize:])
}

// Sign produces a wallet-style signature of message with key. The returned
// signature is hex encoded with v in {27,28}.
func Sign(message string, key *secp256k1.PrivateKey) string {
	compact := ecdsa.SignCompact(key, HashMessage(message), false)
	out := make([]byte, signatureLen)
	copy(out, compact[1:])
	out[64] = compact[0]
	return "0x" + hex.EncodeToString(out)
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	return h.Sum(nil)
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, errors.New("empty signature")
	}
	return hex.DecodeString(s)
}
