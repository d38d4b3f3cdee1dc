package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"storefront-service/internal/domain"
	"storefront-service/internal/repository"
	"storefront-service/internal/tenant"
	"storefront-service/pkg/response"
)

func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenant.FromContext(r.Context())
	if !ok {
		response.ErrorCode(w, http.StatusNotFound, "store_not_found", "Store not found")
		return
	}

	var req RequestOTPBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorCode(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	challenges := repository.NewOTPRepository(rc.Pool)
	res, err := h.uc.RequestOTP(r.Context(), rc, challenges, req.Contact, req.Purpose)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	out := map[string]interface{}{
		"provider": res.Provider,
		"purpose":  req.Purpose,
	}
	if res.ExpiresIn > 0 {
		out["expires_in"] = res.ExpiresIn
		out["message"] = fmt.Sprintf("Verification code sent to %s", maskRecipient(req.Contact))
	}
	if res.Connection != nil {
		out["connection"] = res.Connection
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenant.FromContext(r.Context())
	if !ok {
		response.ErrorCode(w, http.StatusNotFound, "store_not_found", "Store not found")
		return
	}

	var req VerifyOTPBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorCode(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Code == "" || req.Contact == "" {
		response.ErrorCode(w, http.StatusBadRequest, "invalid_request", "Contact and code are required")
		return
	}
	// Password resets have a dedicated endpoint; this one only signs in.
	if req.Purpose != domain.PurposeLogin && req.Purpose != domain.PurposeRegister {
		response.ErrorCode(w, http.StatusBadRequest, "invalid_request", "Invalid or unsupported purpose")
		return
	}

	customers := repository.NewCustomersRepository(rc.Pool)
	challenges := repository.NewOTPRepository(rc.Pool)
	customer, err := h.uc.VerifyOTP(r.Context(), rc, customers, challenges, req.Contact, req.Code, req.Purpose)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.respondWithSession(w, rc, customer, req.RememberMe)
}

// VerifyPhoneToken is the second half of the client-side phone flow: the
// vendor ID token comes in, a session token goes out.
func (h *AuthHandler) VerifyPhoneToken(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenant.FromContext(r.Context())
	if !ok {
		response.ErrorCode(w, http.StatusNotFound, "store_not_found", "Store not found")
		return
	}

	var req VerifyPhoneTokenBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorCode(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.IDToken == "" {
		response.ErrorCode(w, http.StatusBadRequest, "invalid_request", "id_token is required")
		return
	}

	customers := repository.NewCustomersRepository(rc.Pool)
	customer, err := h.uc.VerifyPhoneToken(r.Context(), rc, customers, req.IDToken)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.respondWithSession(w, rc, customer, req.RememberMe)
}

func (h *AuthHandler) respondWithSession(w http.ResponseWriter, rc *tenant.RequestContext, customer *domain.Customer, rememberMe bool) {
	tok, err := h.tokens.Issue(customer.ID, rc.TenantID, rc.Store.ID, rememberMe)
	if err != nil {
		h.logger.Error("session token issue failed",
			zap.String("tenant_id", rc.TenantID),
			zap.String("customer_id", customer.ID),
			zap.Error(err),
		)
		response.ErrorCode(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"token":    tok,
		"customer": customer.Summary(),
	})
}
