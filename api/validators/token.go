package validators

import (
	"net/http"
	"strings"
)

const (
	// WalletSignatureHeader carries the signature of the fixed wallet message.
	WalletSignatureHeader = "auth-wallet-signature"
)

// BearerToken extracts the token from an Authorization header value.
func BearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return ""
}

// WalletSignature returns the wallet signature header, if any.
func WalletSignature(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(WalletSignatureHeader))
}
