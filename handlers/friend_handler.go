package handlers

import (
	"net/http"

	"wizzAPI/internal/callable"
	"wizzAPI/internal/types/user"
	"wizzAPI/services"
)

type FriendHandler struct {
	friendService *services.FriendService
}

func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// POST /getFriends
func (h *FriendHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	callable.WriteResult(w, response{Response: h.friendService.GetFriends(ctx, userID)})
}

// POST /deleteFriendship
func (h *FriendHandler) DeleteFriendship(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req user.TargetRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.friendService.DeleteFriendship(ctx, userID, req.UserID); err != nil {
		callable.WriteError(w, err)
		return
	}
	callable.WriteResult(w, true)
}
