package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"iconbuzzer/internal/middleware"
	"iconbuzzer/internal/models"
	"iconbuzzer/internal/repositories"
	"iconbuzzer/internal/services"
)

type AuthHandler struct {
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type verifyOTPRequest struct {
	Type  string `json:"type" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

type resetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// Register godoc
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body models.RegisterRequest true "Registration payload"
// @Success      201 {object} Response
// @Failure      400 {object} Response
// @Failure      409 {object} Response
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	account, err := h.auth.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateEmail):
			respondError(c, http.StatusConflict, fmt.Sprintf("user already exists with this email %q", req.Email))
		default:
			internalError(c, err)
		}
		return
	}

	respond(c, http.StatusCreated,
		"registration successful, please verify the otp sent to your email",
		gin.H{"email": account.Email, "verified": account.EmailVerified})
}

// SendOTP godoc
// @Summary      Send a verification OTP
// @Tags         auth
// @Produce      json
// @Param        type  query string true "OTP flow" Enums(register, login)
// @Param        email query string true "Account email"
// @Success      200 {object} Response
// @Failure      400 {object} Response
// @Failure      404 {object} Response
// @Router       /api/auth/sent-otp [get]
func (h *AuthHandler) SendOTP(c *gin.Context) {
	flow := c.Query("type")
	email := c.Query("email")
	if email == "" {
		respondError(c, http.StatusBadRequest, "email is required")
		return
	}

	account, err := h.auth.SendOTP(flow, email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadOTPFlow):
			respondError(c, http.StatusBadRequest, "invalid type, allowed values: register or login")
		case errors.Is(err, services.ErrAccountNotFound):
			respondError(c, http.StatusNotFound, fmt.Sprintf("user not found with this email %q, please register first", email))
		case errors.Is(err, services.ErrMailDelivery):
			respondError(c, http.StatusInternalServerError, "error sending otp email, please try again later")
		default:
			internalError(c, err)
		}
		return
	}

	// an already-verified address in the register flow is a no-op success
	if flow == services.OTPFlowRegister && account.EmailVerified {
		respond(c, http.StatusOK, "email already verified, please login",
			gin.H{"email": account.Email, "verified": true})
		return
	}

	respond(c, http.StatusOK, fmt.Sprintf("otp sent to %q", account.Email),
		gin.H{"email": account.Email, "verified": account.EmailVerified})
}

// VerifyOTP godoc
// @Summary      Verify an OTP code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body verifyOTPRequest true "Verification payload"
// @Success      200 {object} Response
// @Failure      400 {object} Response
// @Failure      401 {object} Response
// @Failure      404 {object} Response
// @Router       /api/auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	account, err := h.auth.VerifyOTP(req.Type, req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadOTPFlow):
			respondError(c, http.StatusBadRequest, "invalid type, allowed values: register or login")
		case errors.Is(err, services.ErrAccountNotFound):
			respondError(c, http.StatusNotFound, fmt.Sprintf("user not found with email %q", req.Email))
		case errors.Is(err, services.ErrOTPNotRequested):
			respondError(c, http.StatusBadRequest, "otp was not requested or has already been verified")
		case errors.Is(err, services.ErrOTPInvalid):
			respondError(c, http.StatusUnauthorized, "invalid otp")
		case errors.Is(err, services.ErrOTPExpired):
			respondError(c, http.StatusUnauthorized, "otp expired")
		default:
			internalError(c, err)
		}
		return
	}

	respond(c, http.StatusOK, "otp verified successfully",
		gin.H{"email": account.Email, "verified": account.EmailVerified})
}

// Login godoc
// @Summary      Log in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body models.LoginRequest true "Credentials"
// @Success      200 {object} Response
// @Failure      401 {object} Response
// @Failure      403 {object} Response
// @Failure      404 {object} Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	signed, account, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			respondError(c, http.StatusNotFound, fmt.Sprintf("no user found with email: %s", req.Email))
		case errors.Is(err, services.ErrEmailNotVerified):
			respondError(c, http.StatusUnauthorized, "email not verified, please verify your email first")
		case errors.Is(err, services.ErrAccountDeactivated):
			respondError(c, http.StatusForbidden, "your account is deactivated, contact support")
		case errors.Is(err, services.ErrAccountLocked):
			respondError(c, http.StatusUnauthorized, "your account is temporarily locked due to too many failed attempts")
		case errors.Is(err, services.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "incorrect email or password, please try again")
		default:
			internalError(c, err)
		}
		return
	}

	respond(c, http.StatusOK, "logged in successfully", gin.H{
		"token": signed,
		"user":  gin.H{"id": account.ID, "role": account.Role},
	})
}

// ForgotPassword godoc
// @Summary      Request a password reset token
// @Tags         auth
// @Produce      json
// @Param        email query string true "Account email"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/auth/forgot-password [get]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		respondError(c, http.StatusBadRequest, "email is required")
		return
	}

	account, err := h.auth.ForgotPassword(email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			respondError(c, http.StatusNotFound, fmt.Sprintf("no user found with this email: %s", email))
		case errors.Is(err, services.ErrMailDelivery):
			respondError(c, http.StatusInternalServerError, "error sending reset email, please try again later")
		default:
			internalError(c, err)
		}
		return
	}

	respond(c, http.StatusOK, fmt.Sprintf("reset token sent to %q", account.Email), nil)
}

// ResetPassword godoc
// @Summary      Reset password with a mailed token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token query string true "Reset token from the email"
// @Param        input body resetPasswordRequest true "New password"
// @Success      200 {object} Response
// @Failure      400 {object} Response
// @Failure      404 {object} Response
// @Router       /api/auth/reset-password [patch]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	plainToken := c.Query("token")
	if plainToken == "" {
		respondError(c, http.StatusBadRequest, "reset token is required")
		return
	}
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	signed, account, err := h.auth.ResetPassword(plainToken, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrResetTokenInvalid):
			respondError(c, http.StatusNotFound, "token is invalid or has expired")
		default:
			internalError(c, err)
		}
		return
	}

	respond(c, http.StatusOK, "password reset successful", gin.H{
		"token": signed,
		"user":  gin.H{"id": account.ID, "role": account.Role},
	})
}

// UpdatePassword godoc
// @Summary      Change the current account's password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body updatePasswordRequest true "Old and new passwords"
// @Success      200 {object} Response
// @Failure      400 {object} Response
// @Failure      401 {object} Response
// @Router       /api/user/update-password [patch]
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	account := middleware.CurrentAccount(c)
	if account == nil {
		respondError(c, http.StatusUnauthorized, "you are not logged in, please log in to get access")
		return
	}

	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	signed, _, err := h.auth.UpdatePassword(account, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "your current password is incorrect")
		case errors.Is(err, services.ErrSamePassword):
			respondError(c, http.StatusBadRequest, "new password must be different from the current one")
		default:
			internalError(c, err)
		}
		return
	}

	respond(c, http.StatusOK, "password updated successfully", gin.H{
		"token": signed,
		"user":  gin.H{"id": account.ID, "role": account.Role},
	})
}

// Verify godoc
// @Summary      Validate the current session token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Response
// @Failure      401 {object} Response
// @Router       /api/auth/verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	account := middleware.CurrentAccount(c)
	if account == nil {
		respondError(c, http.StatusUnauthorized, "you are not logged in, please log in to get access")
		return
	}
	respond(c, http.StatusOK, "token is valid",
		gin.H{"user": gin.H{"id": account.ID, "role": account.Role, "email": account.Email}})
}
