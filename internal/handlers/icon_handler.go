package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"iconbuzzer/internal/middleware"
	"iconbuzzer/internal/services"
)

type IconHandler struct {
	icons services.IconService
}

func NewIconHandler(icons services.IconService) *IconHandler {
	return &IconHandler{icons: icons}
}

func iconError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyName):
		respondError(c, http.StatusBadRequest, "name is required")
	case errors.Is(err, services.ErrBadIconType):
		respondError(c, http.StatusBadRequest, "invalid icon type, allowed values: icon, illustration or image")
	case errors.Is(err, services.ErrBadIconAccess):
		respondError(c, http.StatusBadRequest, "invalid access, allowed values: free or premium")
	case errors.Is(err, services.ErrMissingFileURL):
		respondError(c, http.StatusBadRequest, "file public url is required")
	case errors.Is(err, services.ErrSubCategoryNotFound):
		respondError(c, http.StatusNotFound, "parent subcategory not found")
	case errors.Is(err, services.ErrIconNotFound):
		respondError(c, http.StatusNotFound, "icon not found")
	default:
		internalError(c, err)
	}
}

// Create godoc
// @Summary      Add an icon to a subcategory
// @Tags         icon
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body services.IconInput true "Icon payload"
// @Success      201 {object} Response
// @Failure      400 {object} Response
// @Failure      404 {object} Response
// @Router       /api/icon [post]
func (h *IconHandler) Create(c *gin.Context) {
	account := middleware.CurrentAccount(c)
	if account == nil {
		respondError(c, http.StatusUnauthorized, "you are not logged in, please log in to get access")
		return
	}

	var in services.IconInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	icon, err := h.icons.Create(account.ID, in)
	if err != nil {
		iconError(c, err)
		return
	}
	respond(c, http.StatusCreated, "icon created successfully", icon)
}

// GetByID godoc
// @Summary      Fetch an icon by id
// @Tags         icon
// @Produce      json
// @Param        id path string true "Icon id"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/icon/by/{id} [get]
func (h *IconHandler) GetByID(c *gin.Context) {
	icon, err := h.icons.GetByID(c.Param("id"))
	if err != nil {
		iconError(c, err)
		return
	}
	respond(c, http.StatusOK, "icon fetched successfully", icon)
}

// PageList godoc
// @Summary      Page through the active icons of a subcategory
// @Tags         icon
// @Produce      json
// @Param        subCategoryId path  string true  "Subcategory id"
// @Param        page          query int    false "Page number"
// @Param        limit         query int    false "Page size"
// @Param        q             query string false "Search over name, description and tags"
// @Param        sort          query string false "Sort column"
// @Success      200 {object} Response
// @Router       /api/icon/pagelist/{subCategoryId} [get]
func (h *IconHandler) PageList(c *gin.Context) {
	q := parsePageQuery(c)
	icons, total, err := h.icons.PageListBySubCategory(c.Param("subCategoryId"), q)
	if err != nil {
		internalError(c, err)
		return
	}
	respond(c, http.StatusOK, "icons fetched successfully", gin.H{
		"icons": icons,
		"meta":  pageMeta(total, q.Page, q.Limit),
	})
}

// Update godoc
// @Summary      Update an icon's editable fields
// @Tags         icon
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path string             true "Icon id"
// @Param        input body services.IconInput true "New field values"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/icon/{id} [put]
func (h *IconHandler) Update(c *gin.Context) {
	account := middleware.CurrentAccount(c)
	if account == nil {
		respondError(c, http.StatusUnauthorized, "you are not logged in, please log in to get access")
		return
	}

	var in services.IconInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	icon, err := h.icons.Update(c.Param("id"), account.ID, in)
	if err != nil {
		iconError(c, err)
		return
	}
	respond(c, http.StatusOK, "icon updated successfully", icon)
}

// SetStatus godoc
// @Summary      Activate or deactivate an icon
// @Tags         icon
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path string        true "Icon id"
// @Param        input body statusRequest true "Desired state"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/icon/status/{id} [patch]
func (h *IconHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	icon, err := h.icons.SetActive(c.Param("id"), *req.Active)
	if err != nil {
		iconError(c, err)
		return
	}
	respond(c, http.StatusOK, "icon status updated successfully", icon)
}

// Delete godoc
// @Summary      Delete an icon
// @Tags         icon
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Icon id"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/icon/{id} [delete]
func (h *IconHandler) Delete(c *gin.Context) {
	if err := h.icons.Delete(c.Param("id")); err != nil {
		iconError(c, err)
		return
	}
	respond(c, http.StatusOK, "icon deleted successfully", nil)
}

// Like godoc
// @Summary      Like an icon
// @Tags         icon
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Icon id"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/icon/like/{id} [patch]
func (h *IconHandler) Like(c *gin.Context) {
	icon, err := h.icons.Like(c.Param("id"))
	if err != nil {
		iconError(c, err)
		return
	}
	respond(c, http.StatusOK, "icon liked", gin.H{"id": icon.ID, "likes": icon.Likes})
}

// Download godoc
// @Summary      Record an icon download
// @Tags         icon
// @Produce      json
// @Param        id path string true "Icon id"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/icon/download/{id} [patch]
func (h *IconHandler) Download(c *gin.Context) {
	icon, err := h.icons.Download(c.Param("id"))
	if err != nil {
		iconError(c, err)
		return
	}
	respond(c, http.StatusOK, "icon download recorded", gin.H{
		"id":         icon.ID,
		"downloaded": icon.Downloaded,
		"url":        icon.File.PublicURL,
	})
}
