package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	saltedPrefix = "Salted__"
	saltLen      = 8
	aesKeyLen    = 32
)

// ErrDecrypt is returned for any ciphertext that cannot be opened.
var ErrDecrypt = errors.New("unable to decrypt payload")

// DecryptPassphrase opens a base64 OpenSSL "Salted__" AES-256-CBC payload
// encrypted with a passphrase, as produced by CryptoJS.AES.encrypt.
func DecryptPassphrase(encoded, passphrase string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < len(saltedPrefix)+saltLen+aes.BlockSize || !bytes.HasPrefix(raw, []byte(saltedPrefix)) {
		return nil, ErrDecrypt
	}
	salt := raw[len(saltedPrefix) : len(saltedPrefix)+saltLen]
	ciphertext := raw[len(saltedPrefix)+saltLen:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrDecrypt
	}

	key, iv := deriveKeyIV([]byte(passphrase), salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)
	return unpad(plain)
}

// EncryptPassphrase is the inverse of DecryptPassphrase.
func EncryptPassphrase(plain []byte, passphrase string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key, iv := deriveKeyIV([]byte(passphrase), salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	padded := pad(plain)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	buf := make([]byte, 0, len(saltedPrefix)+saltLen+len(out))
	buf = append(buf, saltedPrefix...)
	buf = append(buf, salt...)
	buf = append(buf, out...)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// deriveKeyIV implements OpenSSL EVP_BytesToKey with MD5 and one iteration.
func deriveKeyIV(passphrase, salt []byte) ([]byte, []byte) {
	var derived, prev []byte
	for len(derived) < aesKeyLen+aes.BlockSize {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}
	return derived[:aesKeyLen], derived[aesKeyLen : aesKeyLen+aes.BlockSize]
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(append([]byte{}, b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrDecrypt
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, ErrDecrypt
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrDecrypt
		}
	}
	return b[:len(b)-n], nil
}
