package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cecimongo/identity-api/internal/api/metrics"
	"github.com/cecimongo/identity-api/internal/core/ports"
)

type VerificationHandler struct {
	verification ports.VerificationService
}

func NewVerificationHandler(verification ports.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

type validateCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// SendCode e-mails a fresh verification code to the caller.
//
// @Summary      Send validation code
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Failure      429  {object}  errorBody
// @Failure      500  {object}  errorBody
// @Router       /api/auth/send-validation-code [post]
func (h *VerificationHandler) SendCode(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.verification.SendCode(c.Request().Context(), userID); err != nil {
		return err
	}
	metrics.CodesSentTotal.Inc()

	return c.JSON(http.StatusOK, messageResponse{Message: "Validation code sent."})
}

// ValidateCode marks the caller as validated when the newest code matches.
//
// @Summary      Validate validation code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      validateCodeRequest  true  "Six digit code"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      500   {object}  errorBody
// @Router       /api/auth/validate-validation-code [post]
func (h *VerificationHandler) ValidateCode(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req validateCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err = h.verification.ValidateCode(c.Request().Context(), userID, req.Code)
	metrics.CodeValidationsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "User validated."})
}
