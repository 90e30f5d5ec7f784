package middleware

import (
	"net/http"

	"github.com/angelmondragon/clipstream-backend/api/validators"
	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

// Credentials copies the bearer id token and the wallet signature onto the
// request context. Operations decide for themselves whether they need them.
func Credentials(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds := authenticity.Credentials{
				IDToken:         validators.BearerToken(r.Header.Get("Authorization")),
				WalletSignature: validators.WalletSignature(r),
			}

			ctx := authenticity.WithCredentials(r.Context(), creds)
			caller := ""
			if creds.IDToken != "" || creds.HasSignature() {
				caller = hashValue(creds.IDToken + "|" + creds.WalletSignature)[:16]
			}
			ctx = WithCaller(ctx, caller)
			if logg != nil && caller != "" {
				ctx = logg.WithField(ctx, "caller", caller)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
