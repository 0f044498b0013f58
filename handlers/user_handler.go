package handlers

import (
	"net/http"

	"wizzAPI/internal/callable"
	"wizzAPI/internal/types/user"
	"wizzAPI/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// POST /getUsername
func (h *UserHandler) GetUsername(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	callable.WriteResult(w, response{Response: h.userService.GetUsername(ctx, userID)})
}

// POST /updateUsername
func (h *UserHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req user.UpdateUsernameRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.userService.UpdateUsername(ctx, userID, req.Username); err != nil {
		callable.WriteError(w, err)
		return
	}
	callable.WriteResult(w, true)
}

// POST /getUsersFromContacts
func (h *UserHandler) GetUsersFromContacts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, _, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req user.ContactsRequest
	if !decode(w, r, &req) {
		return
	}

	users, err := h.userService.GetUsersFromContacts(ctx, req.PhoneNumbers)
	if err != nil {
		callable.WriteError(w, err)
		return
	}
	callable.WriteResult(w, response{Response: users})
}

// POST /registerDeviceToken
func (h *UserHandler) RegisterDeviceToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, userID, ok := callerContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req user.RegisterDeviceRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.userService.RegisterDeviceToken(ctx, userID, req.Token); err != nil {
		callable.WriteError(w, err)
		return
	}
	callable.WriteResult(w, true)
}
