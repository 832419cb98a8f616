package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/unread/models"
	"github.com/akinalp/unread/pkg"
	"github.com/akinalp/unread/services"
)

// GroupHandler, grup ve grup mesajı endpoint'lerini yöneten struct.
type GroupHandler struct {
	groupService   services.GroupService
	messageService services.MessageService
}

// NewGroupHandler, constructor.
func NewGroupHandler(groupService services.GroupService, messageService services.MessageService) *GroupHandler {
	return &GroupHandler{
		groupService:   groupService,
		messageService: messageService,
	}
}

// Create godoc
// POST /api/groups
// Yeni grup oluşturur; oluşturan kullanıcı otomatik üye olur.
//
// Body: { "name": "team" }
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := h.groupService.Create(r.Context(), user.UserID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, group)
}

// List godoc
// GET /api/groups
// Kullanıcının üyesi olduğu grupları listeler.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	groups, err := h.groupService.ListForUser(r.Context(), user.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, groups)
}

// Join godoc
// POST /api/groups/{id}/join
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.groupService.Join(r.Context(), user.UserID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "joined"})
}

// Leave godoc
// POST /api/groups/{id}/leave
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.groupService.Leave(r.Context(), user.UserID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "left"})
}

// SendMessage godoc
// POST /api/groups/{id}/messages
// Gruba mesaj gönderir. Sadece üyeler gönderebilir.
func (h *GroupHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messageService.SendGroupMessage(r.Context(), user.UserID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, msg)
}
