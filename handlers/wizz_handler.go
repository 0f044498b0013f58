package handlers

import (
	"net/http"

	"wizzAPI/internal/callable"
	"wizzAPI/internal/types/wizz"
	"wizzAPI/services"
)

type WizzHandler struct {
	wizzService *services.WizzService
}

func NewWizzHandler(wizzService *services.WizzService) *WizzHandler {
	return &WizzHandler{wizzService: wizzService}
}

// POST /wizz
func (h *WizzHandler) Wizz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req wizz.Request
	if !decode(w, r, &req) {
		return
	}

	sent, err := h.wizzService.Wizz(ctx, userID, req.SelectedFriendsIDs)
	if err != nil {
		callable.WriteError(w, err)
		return
	}
	callable.WriteResult(w, response{Response: sent})
}

// POST /getWizzesReceived
func (h *WizzHandler) GetWizzesReceived(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req wizz.HistoryRequest
	if !decode(w, r, &req) {
		return
	}

	callable.WriteResult(w, response{Response: h.wizzService.GetWizzesReceived(ctx, userID, req.Limit)})
}
