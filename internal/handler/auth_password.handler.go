package handler

import (
	"encoding/json"
	"net/http"

	"storefront-service/internal/repository"
	"storefront-service/internal/tenant"
	"storefront-service/pkg/response"
)

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenant.FromContext(r.Context())
	if !ok {
		response.ErrorCode(w, http.StatusNotFound, "store_not_found", "Store not found")
		return
	}

	var req LoginBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorCode(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	customers := repository.NewCustomersRepository(rc.Pool)
	customer, err := h.uc.LoginWithPassword(r.Context(), customers, req.Identifier, req.Password)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.respondWithSession(w, rc, customer, req.RememberMe)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenant.FromContext(r.Context())
	if !ok {
		response.ErrorCode(w, http.StatusNotFound, "store_not_found", "Store not found")
		return
	}

	var req RegisterBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorCode(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	customers := repository.NewCustomersRepository(rc.Pool)
	customer, err := h.uc.Register(r.Context(), rc, customers, req.Name, req.Contact, req.Password)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.respondWithSession(w, rc, customer, false)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenant.FromContext(r.Context())
	if !ok {
		response.ErrorCode(w, http.StatusNotFound, "store_not_found", "Store not found")
		return
	}

	var req ForgotPasswordBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorCode(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	customers := repository.NewCustomersRepository(rc.Pool)
	challenges := repository.NewOTPRepository(rc.Pool)
	if err := h.uc.ForgotPassword(r.Context(), rc, customers, challenges, req.Contact); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	// Same answer whether or not the contact exists.
	response.JSON(w, http.StatusOK, map[string]string{
		"message": "If the contact is registered, a reset code has been sent",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenant.FromContext(r.Context())
	if !ok {
		response.ErrorCode(w, http.StatusNotFound, "store_not_found", "Store not found")
		return
	}

	var req ResetPasswordBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorCode(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Code == "" {
		response.ErrorCode(w, http.StatusBadRequest, "invalid_request", "Reset code is required")
		return
	}

	customers := repository.NewCustomersRepository(rc.Pool)
	challenges := repository.NewOTPRepository(rc.Pool)
	if err := h.uc.ResetPassword(r.Context(), rc, customers, challenges, req.Contact, req.Code, req.NewPassword); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"message": "Password updated; previous sessions are no longer valid",
	})
}
