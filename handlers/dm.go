package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/unread/models"
	"github.com/akinalp/unread/pkg"
	"github.com/akinalp/unread/services"
)

// DMHandler, DM endpoint'lerini yöneten struct.
type DMHandler struct {
	messageService services.MessageService
}

// NewDMHandler, constructor.
func NewDMHandler(messageService services.MessageService) *DMHandler {
	return &DMHandler{messageService: messageService}
}

// SendMessage godoc
// POST /api/dm/{userId}/messages
// {userId} kullanıcısına DM gönderir.
//
// Body: { "content": "mesaj" }
func (h *DMHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messageService.SendDirect(r.Context(), user.UserID, r.PathValue("userId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, msg)
}

// MarkRead godoc
// POST /api/dm/{userId}/read
// {userId} kullanıcısından gelen tüm DM'leri okundu yapar.
//
// Response: { "success": true, "data": { "marked": 3 } }
func (h *DMHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	marked, err := h.messageService.MarkDirectRead(r.Context(), user.UserID, r.PathValue("userId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]int64{"marked": marked})
}
