package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"iconbuzzer/internal/middleware"
	"iconbuzzer/internal/models"
	"iconbuzzer/internal/repositories"
	"iconbuzzer/internal/services"
)

type AccountHandler struct {
	accounts services.AccountService
}

func NewAccountHandler(accounts services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func parsePageQuery(c *gin.Context) repositories.PageQuery {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	order := -1
	if c.Query("order") == "1" || c.Query("order") == "asc" {
		order = 1
	}
	return repositories.PageQuery{
		Page:   page,
		Limit:  limit,
		Search: c.Query("q"),
		Sort:   c.Query("sort"),
		Order:  order,
	}
}

type statusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type deleteAccountsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// Me godoc
// @Summary      Get the current account profile
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Response
// @Failure      401 {object} Response
// @Router       /api/user/me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	account := middleware.CurrentAccount(c)
	if account == nil {
		respondError(c, http.StatusUnauthorized, "you are not logged in, please log in to get access")
		return
	}
	respond(c, http.StatusOK, "user fetched successfully", account)
}

// UpdateMe godoc
// @Summary      Update the current account profile
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body models.ProfileUpdate true "Fields to change"
// @Success      200 {object} Response
// @Failure      400 {object} Response
// @Failure      409 {object} Response
// @Router       /api/user/update-me [patch]
func (h *AccountHandler) UpdateMe(c *gin.Context) {
	account := middleware.CurrentAccount(c)
	if account == nil {
		respondError(c, http.StatusUnauthorized, "you are not logged in, please log in to get access")
		return
	}

	var upd models.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}

	updated, err := h.accounts.UpdateMe(account.ID, upd)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateEmail):
			respondError(c, http.StatusConflict, "this email is already in use by another account")
		case errors.Is(err, services.ErrAccountNotFound):
			respondError(c, http.StatusUnauthorized, "your session has expired or token is invalid, please log in again")
		default:
			internalError(c, err)
		}
		return
	}

	msg := "profile updated successfully"
	if !updated.EmailVerified && account.EmailVerified {
		msg = "profile updated, please verify your new email address"
	}
	respond(c, http.StatusOK, msg, updated)
}

// List godoc
// @Summary      List accounts, optionally filtered by role
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Param        role query string false "Role filter" Enums(user, admin)
// @Success      200 {object} Response
// @Failure      403 {object} Response
// @Router       /api/user/list [get]
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.accounts.List(c.Query("role"))
	if err != nil {
		internalError(c, err)
		return
	}
	respond(c, http.StatusOK, "users fetched successfully", gin.H{
		"users": accounts,
		"count": len(accounts),
	})
}

// PageList godoc
// @Summary      Page through accounts with search and sorting
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int    false "Page number"
// @Param        limit query int    false "Page size"
// @Param        q     query string false "Search over name and email"
// @Param        sort  query string false "Sort column"
// @Param        order query string false "asc or desc"
// @Success      200 {object} Response
// @Router       /api/user/pagelist [get]
func (h *AccountHandler) PageList(c *gin.Context) {
	q := parsePageQuery(c)
	accounts, total, err := h.accounts.PageList(q)
	if err != nil {
		internalError(c, err)
		return
	}
	respond(c, http.StatusOK, "users fetched successfully", gin.H{
		"users": accounts,
		"meta":  pageMeta(total, q.Page, q.Limit),
	})
}

// GetByID godoc
// @Summary      Fetch a single account by id
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Account id"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/user/by/{id} [get]
func (h *AccountHandler) GetByID(c *gin.Context) {
	account, err := h.accounts.GetByID(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			respondError(c, http.StatusNotFound, "user not found")
		default:
			internalError(c, err)
		}
		return
	}
	respond(c, http.StatusOK, "user fetched successfully", account)
}

// SetStatus godoc
// @Summary      Activate or deactivate an account
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path string        true "Account id"
// @Param        input body statusRequest true "Desired state"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/user/status/{id} [patch]
func (h *AccountHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	account, err := h.accounts.SetActive(c.Param("id"), *req.Active)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			respondError(c, http.StatusNotFound, "user not found")
		default:
			internalError(c, err)
		}
		return
	}

	msg := "user activated successfully"
	if !account.Active {
		msg = "user deactivated successfully"
	}
	respond(c, http.StatusOK, msg, account)
}

// Delete godoc
// @Summary      Delete accounts in bulk
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body deleteAccountsRequest true "Account ids"
// @Success      200 {object} Response
// @Failure      400 {object} Response
// @Router       /api/user/delete [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	var req deleteAccountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	deleted, missing, err := h.accounts.Delete(req.IDs)
	if err != nil {
		internalError(c, err)
		return
	}
	if len(deleted) == 0 {
		respond(c, http.StatusNotFound, "no matching users found", gin.H{"missing_ids": missing})
		return
	}
	respond(c, http.StatusOK, "users deleted successfully", gin.H{
		"deleted_ids": deleted,
		"missing_ids": missing,
	})
}
