package handler

import (
	"encoding/json"
	"net/http"

	"storefront-service/internal/repository"
	"storefront-service/internal/tenant"
	"storefront-service/internal/token"
	"storefront-service/pkg/middleware"
	"storefront-service/pkg/response"
)

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	rc, _ := tenant.FromContext(r.Context())
	customerID, ok := middleware.CustomerIDFromContext(r.Context())
	if !ok {
		response.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	customers := repository.NewCustomersRepository(rc.Pool)
	c, err := customers.GetByID(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, c.Summary())
}

// ChangePassword updates the password and hands back a fresh session token,
// since the change invalidates every token issued before it.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	rc, _ := tenant.FromContext(r.Context())
	customerID, ok := middleware.CustomerIDFromContext(r.Context())
	if !ok {
		response.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req ChangePasswordBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorCode(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	customers := repository.NewCustomersRepository(rc.Pool)
	if err := h.uc.ChangePassword(r.Context(), customers, customerID, req.CurrentPassword, req.NewPassword); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	tok, err := h.tokens.Issue(customerID, rc.TenantID, rc.Store.ID, false)
	if err != nil {
		response.ErrorCode(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"message": "Password changed",
		"token":   tok,
	})
}

// Refresh reissues the presented (still valid) session token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(middleware.ContextClaims).(*token.Claims)
	if !ok || claims == nil {
		response.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	tok, err := h.tokens.Reissue(claims)
	if err != nil {
		response.ErrorCode(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"token": tok})
}
