package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/velstadt/foodcart/internal/domain/auth"
)

const apiKeyHeader = "Api-Key"

// requireAPIKey guards the back-office routes. It computes the HMAC-SHA256 of
// the presented key, looks the digest up in the repository and performs a
// constant-time comparison to prevent timing attacks.
func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			respondError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		mac := hmac.New(sha256.New, h.pepper)
		mac.Write([]byte(key))
		digest := mac.Sum(nil)

		info, err := h.apikeys.FindByHash(r.Context(), hex.EncodeToString(digest))
		if err != nil {
			zctx.From(r.Context()).Debug("api key lookup failed", zap.Error(err))
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(digest, stored) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if !info.HasScope(auth.ScopeBackoffice) {
			respondError(w, http.StatusForbidden, "insufficient scope")
			return
		}

		next.ServeHTTP(w, r)
	})
}
