package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "letting-compliance/internal/common/errors"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeValidationFailed, apperrors.ErrCodeInputParsing:
		return http.StatusBadRequest
	case apperrors.ErrCodeBusinessRule:
		return http.StatusConflict
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeExternalService,
		apperrors.ErrCodeScreeningProviderFailed,
		apperrors.ErrCodeEmailDeliveryFailed,
		apperrors.ErrCodeSMSDeliveryFailed:
		return http.StatusBadGateway
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handler) abort(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)
	status := statusFor(stdErr.Code)

	body := errorBody{Code: string(stdErr.Code), Message: stdErr.Message, Details: stdErr.Details}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request error", map[string]interface{}{
			"code":    string(stdErr.Code),
			"details": stdErr.Details,
			"path":    c.FullPath(),
		})
		// internal details stay in the logs
		body.Details = ""
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
