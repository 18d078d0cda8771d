package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"iconbuzzer/internal/repositories"
	"iconbuzzer/internal/services"
)

type CategoryHandler struct {
	categories services.CategoryService
}

func NewCategoryHandler(categories services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

type categoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// Create godoc
// @Summary      Create a category
// @Tags         category
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body categoryRequest true "Category name"
// @Success      201 {object} Response
// @Failure      409 {object} Response
// @Router       /api/category [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	category, err := h.categories.Create(req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyName):
			respondError(c, http.StatusBadRequest, "name is required")
		case errors.Is(err, repositories.ErrDuplicateName):
			respondError(c, http.StatusConflict, "category already exists with this name")
		default:
			internalError(c, err)
		}
		return
	}
	respond(c, http.StatusCreated, "category created successfully", category)
}

// List godoc
// @Summary      List all categories
// @Tags         category
// @Produce      json
// @Success      200 {object} Response
// @Router       /api/category/list [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.List()
	if err != nil {
		internalError(c, err)
		return
	}
	respond(c, http.StatusOK, "categories fetched successfully", gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// PageList godoc
// @Summary      Page through categories
// @Tags         category
// @Produce      json
// @Param        page  query int    false "Page number"
// @Param        limit query int    false "Page size"
// @Param        q     query string false "Search over name"
// @Success      200 {object} Response
// @Router       /api/category/pagelist [get]
func (h *CategoryHandler) PageList(c *gin.Context) {
	q := parsePageQuery(c)
	categories, total, err := h.categories.PageList(q)
	if err != nil {
		internalError(c, err)
		return
	}
	respond(c, http.StatusOK, "categories fetched successfully", gin.H{
		"categories": categories,
		"meta":       pageMeta(total, q.Page, q.Limit),
	})
}

// GetByID godoc
// @Summary      Fetch a category by id
// @Tags         category
// @Produce      json
// @Param        id path string true "Category id"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/category/by/{id} [get]
func (h *CategoryHandler) GetByID(c *gin.Context) {
	category, err := h.categories.GetByID(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCategoryNotFound):
			respondError(c, http.StatusNotFound, "category not found")
		default:
			internalError(c, err)
		}
		return
	}
	respond(c, http.StatusOK, "category fetched successfully", category)
}

// Update godoc
// @Summary      Rename a category
// @Tags         category
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path string          true "Category id"
// @Param        input body categoryRequest true "New name"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/category/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	category, err := h.categories.Update(c.Param("id"), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyName):
			respondError(c, http.StatusBadRequest, "name is required")
		case errors.Is(err, services.ErrCategoryNotFound):
			respondError(c, http.StatusNotFound, "category not found")
		case errors.Is(err, repositories.ErrDuplicateName):
			respondError(c, http.StatusConflict, "category already exists with this name")
		default:
			internalError(c, err)
		}
		return
	}
	respond(c, http.StatusOK, "category updated successfully", category)
}

// SetStatus godoc
// @Summary      Activate or deactivate a category
// @Tags         category
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path string        true "Category id"
// @Param        input body statusRequest true "Desired state"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/category/status/{id} [patch]
func (h *CategoryHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	category, err := h.categories.SetActive(c.Param("id"), *req.Active)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCategoryNotFound):
			respondError(c, http.StatusNotFound, "category not found")
		default:
			internalError(c, err)
		}
		return
	}
	respond(c, http.StatusOK, "category status updated successfully", category)
}

// Delete godoc
// @Summary      Delete an empty category
// @Tags         category
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Category id"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Failure      409 {object} Response
// @Router       /api/category/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	err := h.categories.Delete(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCategoryNotFound):
			respondError(c, http.StatusNotFound, "category not found")
		case errors.Is(err, services.ErrCategoryInUse):
			respondError(c, http.StatusConflict, "category still has subcategories, delete them first")
		default:
			internalError(c, err)
		}
		return
	}
	respond(c, http.StatusOK, "category deleted successfully", nil)
}
