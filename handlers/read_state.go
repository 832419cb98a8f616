package handlers

import (
	"net/http"

	"github.com/akinalp/unread/pkg"
	"github.com/akinalp/unread/services"
)

// ReadStateHandler, grup okuma işaretçisi endpoint'lerini yöneten struct.
type ReadStateHandler struct {
	readStateService services.ReadStateService
}

// NewReadStateHandler, constructor.
func NewReadStateHandler(readStateService services.ReadStateService) *ReadStateHandler {
	return &ReadStateHandler{readStateService: readStateService}
}

// MarkRead godoc
// POST /api/groups/{id}/read
// Grubun okuma işaretçisini şu ana çeker.
func (h *ReadStateHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	marker, err := h.readStateService.MarkGroupRead(r.Context(), user.UserID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, marker)
}

// GetMarker godoc
// GET /api/groups/{id}/read
// Kullanıcının bu gruptaki okuma işaretçisini döner; yoksa 404.
func (h *ReadStateHandler) GetMarker(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	marker, err := h.readStateService.GetMarker(r.Context(), user.UserID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, marker)
}
