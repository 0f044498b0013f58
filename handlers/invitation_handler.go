package handlers

import (
	"net/http"

	"wizzAPI/internal/callable"
	"wizzAPI/internal/types/user"
	"wizzAPI/services"
)

type InvitationHandler struct {
	invitationService *services.InvitationService
}

func NewInvitationHandler(invitationService *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// POST /sendInvitation
func (h *InvitationHandler) SendInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req user.TargetRequest
	if !decode(w, r, &req) {
		return
	}

	msg, err := h.invitationService.SendInvitation(ctx, userID, req.UserID)
	if err != nil {
		callable.WriteError(w, err)
		return
	}
	callable.WriteResult(w, response{Response: msg})
}

// POST /withdrawInvitation
func (h *InvitationHandler) WithdrawInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req user.TargetRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.invitationService.WithdrawInvitation(ctx, userID, req.UserID); err != nil {
		callable.WriteError(w, err)
		return
	}
	callable.WriteResult(w, true)
}

// POST /acceptInvitation
func (h *InvitationHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req user.TargetRequest
	if !decode(w, r, &req) {
		return
	}

	accepted, err := h.invitationService.AcceptInvitation(ctx, req.UserID, userID)
	if err != nil {
		callable.WriteError(w, err)
		return
	}
	callable.WriteResult(w, response{Response: accepted})
}

// POST /refuseInvitation
func (h *InvitationHandler) RefuseInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req user.TargetRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.invitationService.RefuseInvitation(ctx, req.UserID, userID); err != nil {
		callable.WriteError(w, err)
		return
	}
	callable.WriteResult(w, true)
}

// POST /getUsersInvited
func (h *InvitationHandler) GetUsersInvited(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	callable.WriteResult(w, response{Response: h.invitationService.GetUsersInvited(ctx, userID)})
}

// POST /getUsersInvitedMe
func (h *InvitationHandler) GetUsersInvitedMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	callable.WriteResult(w, response{Response: h.invitationService.GetUsersInvitedMe(ctx, userID)})
}
