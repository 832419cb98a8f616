// Package handlers, HTTP request/response işlemlerini yönetir.
//
// Handler'lar "ince"dir:
// 1. Request body'yi parse et (JSON → struct)
// 2. Service katmanını çağır
// 3. Sonucu pkg.JSON / pkg.Error ile döndür
//
// İş mantığı service'lerde, DB erişimi repository'lerdedir.
package handlers

import (
	"net/http"

	"github.com/akinalp/unread/models"
	"github.com/akinalp/unread/pkg"
)

// contextKey, context'te değer taşımak için özel key tipi:
// string key'lerle çakışmayı önler.
type contextKey string

// UserContextKey, AuthMiddleware'ın doğrulanmış token claims'ini koyduğu key.
// Handler'larda r.Context().Value(UserContextKey).(*models.TokenClaims) ile erişilir.
const UserContextKey contextKey = "user"

// requireUser, context'teki kullanıcıyı döner; yoksa 401 yazar ve false döner.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.TokenClaims, bool) {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok || claims == nil {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return claims, true
}
