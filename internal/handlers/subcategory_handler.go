package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"iconbuzzer/internal/repositories"
	"iconbuzzer/internal/services"
)

type SubCategoryHandler struct {
	subcategories services.SubCategoryService
}

func NewSubCategoryHandler(subcategories services.SubCategoryService) *SubCategoryHandler {
	return &SubCategoryHandler{subcategories: subcategories}
}

type subCategoryCreateRequest struct {
	CategoryID  string `json:"category_id" binding:"required"`
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

type subCategoryUpdateRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// Create godoc
// @Summary      Create a subcategory under a category
// @Tags         subcategory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body subCategoryCreateRequest true "Subcategory payload"
// @Success      201 {object} Response
// @Failure      404 {object} Response
// @Failure      409 {object} Response
// @Router       /api/subcategory [post]
func (h *SubCategoryHandler) Create(c *gin.Context) {
	var req subCategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sc, err := h.subcategories.Create(req.CategoryID, req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyName):
			respondError(c, http.StatusBadRequest, "name is required")
		case errors.Is(err, services.ErrCategoryNotFound):
			respondError(c, http.StatusNotFound, "parent category not found")
		case errors.Is(err, repositories.ErrDuplicateName):
			respondError(c, http.StatusConflict, "subcategory already exists with this name")
		default:
			internalError(c, err)
		}
		return
	}
	respond(c, http.StatusCreated, "subcategory created successfully", sc)
}

// ListByCategory godoc
// @Summary      List subcategories of a category
// @Tags         subcategory
// @Produce      json
// @Param        categoryId path string true "Category id"
// @Success      200 {object} Response
// @Router       /api/subcategory/list/{categoryId} [get]
func (h *SubCategoryHandler) ListByCategory(c *gin.Context) {
	subcategories, err := h.subcategories.ListByCategory(c.Param("categoryId"))
	if err != nil {
		internalError(c, err)
		return
	}
	respond(c, http.StatusOK, "subcategories fetched successfully", gin.H{
		"subcategories": subcategories,
		"count":         len(subcategories),
	})
}

// PageList godoc
// @Summary      Page through subcategories of a category
// @Tags         subcategory
// @Produce      json
// @Param        categoryId path  string true  "Category id"
// @Param        page       query int    false "Page number"
// @Param        limit      query int    false "Page size"
// @Param        q          query string false "Search over name"
// @Success      200 {object} Response
// @Router       /api/subcategory/pagelist/{categoryId} [get]
func (h *SubCategoryHandler) PageList(c *gin.Context) {
	q := parsePageQuery(c)
	subcategories, total, err := h.subcategories.PageList(c.Param("categoryId"), q)
	if err != nil {
		internalError(c, err)
		return
	}
	respond(c, http.StatusOK, "subcategories fetched successfully", gin.H{
		"subcategories": subcategories,
		"meta":          pageMeta(total, q.Page, q.Limit),
	})
}

// GetByID godoc
// @Summary      Fetch a subcategory by id
// @Tags         subcategory
// @Produce      json
// @Param        id path string true "Subcategory id"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/subcategory/by/{id} [get]
func (h *SubCategoryHandler) GetByID(c *gin.Context) {
	sc, err := h.subcategories.GetByID(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSubCategoryNotFound):
			respondError(c, http.StatusNotFound, "subcategory not found")
		default:
			internalError(c, err)
		}
		return
	}
	respond(c, http.StatusOK, "subcategory fetched successfully", sc)
}

// Update godoc
// @Summary      Rename a subcategory
// @Tags         subcategory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path string                   true "Subcategory id"
// @Param        input body subCategoryUpdateRequest true "New name and description"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/subcategory/{id} [put]
func (h *SubCategoryHandler) Update(c *gin.Context) {
	var req subCategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sc, err := h.subcategories.Update(c.Param("id"), req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyName):
			respondError(c, http.StatusBadRequest, "name is required")
		case errors.Is(err, services.ErrSubCategoryNotFound):
			respondError(c, http.StatusNotFound, "subcategory not found")
		case errors.Is(err, repositories.ErrDuplicateName):
			respondError(c, http.StatusConflict, "subcategory already exists with this name")
		default:
			internalError(c, err)
		}
		return
	}
	respond(c, http.StatusOK, "subcategory updated successfully", sc)
}

// SetStatus godoc
// @Summary      Activate or deactivate a subcategory
// @Tags         subcategory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path string        true "Subcategory id"
// @Param        input body statusRequest true "Desired state"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Router       /api/subcategory/status/{id} [patch]
func (h *SubCategoryHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sc, err := h.subcategories.SetActive(c.Param("id"), *req.Active)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSubCategoryNotFound):
			respondError(c, http.StatusNotFound, "subcategory not found")
		default:
			internalError(c, err)
		}
		return
	}
	respond(c, http.StatusOK, "subcategory status updated successfully", sc)
}

// Delete godoc
// @Summary      Delete an empty subcategory
// @Tags         subcategory
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subcategory id"
// @Success      200 {object} Response
// @Failure      404 {object} Response
// @Failure      409 {object} Response
// @Router       /api/subcategory/{id} [delete]
func (h *SubCategoryHandler) Delete(c *gin.Context) {
	err := h.subcategories.Delete(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSubCategoryNotFound):
			respondError(c, http.StatusNotFound, "subcategory not found")
		case errors.Is(err, services.ErrSubCategoryInUse):
			respondError(c, http.StatusConflict, "subcategory still has icons, delete them first")
		default:
			internalError(c, err)
		}
		return
	}
	respond(c, http.StatusOK, "subcategory deleted successfully", nil)
}
