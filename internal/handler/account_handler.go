package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/tutor-portal/internal/middleware"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/response"
	"github.com/stemsi/tutor-portal/internal/validator"
)

// AccountEditor reads and saves the account form. *service.AccountService
// implements it.
type AccountEditor interface {
	Get(ctx context.Context, uid string) (*model.StudentProfile, error)
	Update(ctx context.Context, uid string, req *model.AccountUpdateRequest) (*model.StudentProfile, error)
}

// AccountHandler serves the account settings form.
type AccountHandler struct {
	accounts AccountEditor
	log      zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts AccountEditor, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		log:      log.With().Str("component", "account_handler").Logger(),
	}
}

// GetAccount godoc
// GET /api/v1/student/account
func (h *AccountHandler) GetAccount(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	profile, err := h.accounts.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// UpdateAccount godoc
// PUT /api/v1/student/account
// Requires currentPassword. Profile, email and password change together or
// not at all.
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AccountUpdateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	profile, err := h.accounts.Update(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}
