package handlers

import (
	"errors"
	"net/http"

	"github.com/akinalp/unread/pkg"
	"github.com/akinalp/unread/services"
)

// UnreadHandler, okunmamış sayısı endpoint'lerini yöneten struct.
type UnreadHandler struct {
	unreadService services.UnreadService
}

// NewUnreadHandler, constructor.
func NewUnreadHandler(unreadService services.UnreadService) *UnreadHandler {
	return &UnreadHandler{unreadService: unreadService}
}

// Get godoc
// GET /api/unread
// Kullanıcının toplam okunmamış sayısını döner.
//
// Response: { "success": true, "data": { "count": 5, "seq": 12, "path": "fast", "updated_at": "..." } }
func (h *UnreadHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	count, err := h.unreadService.Get(r.Context(), user.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, count)
}

// Refresh godoc
// POST /api/unread/refresh
// Senkron yeniden hesaplama. Kullanıcı başına rate limit'lidir: aşılırsa
// 429 + Retry-After döner.
func (h *UnreadHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	count, err := h.unreadService.Refresh(r.Context(), user.UserID)
	if errors.Is(err, pkg.ErrTooManyRequests) {
		pkg.TooManyRequests(w, h.unreadService.RetryAfter(user.UserID))
		return
	}
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, count)
}
