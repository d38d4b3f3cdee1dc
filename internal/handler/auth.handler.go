package handler

import (
	"net/http"

	"go.uber.org/zap"

	"storefront-service/internal/token"
	"storefront-service/internal/usecase"
	"storefront-service/pkg/response"
)

type AuthHandler struct {
	uc     *usecase.CustomerUsecase
	tokens *token.Issuer
	logger *zap.Logger
}

func NewAuthHandler(uc *usecase.CustomerUsecase, tokens *token.Issuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		tokens: tokens,
		logger: logger,
	}
}

func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
