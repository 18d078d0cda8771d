package services

import (
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"iconbuzzer/internal/models"
	"iconbuzzer/internal/repositories"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category has subcategories")
	ErrEmptyName        = errors.New("name is required")
)

type CategoryService interface {
	Create(name string) (*models.Category, error)
	GetByID(id string) (*models.Category, error)
	List() ([]*models.Category, error)
	PageList(q repositories.PageQuery) ([]*models.Category, int, error)
	Update(id, name string) (*models.Category, error)
	SetActive(id string, active bool) (*models.Category, error)
	Delete(id string) error
}

type categoryService struct {
	repo repositories.CategoryRepository
}

func NewCategoryService(repo repositories.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) Create(name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	c := &models.Category{
		ID:     uuid.NewString(),
		Name:   name,
		Slug:   slug.Make(name),
		Active: true,
	}
	if err := s.repo.Create(c); err != nil {
		return nil, err
	}
	log.Printf("[category][create] id=%s slug=%s", c.ID, c.Slug)
	return c, nil
}

func (s *categoryService) GetByID(id string) (*models.Category, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCategoryNotFound
	}
	return c, nil
}

func (s *categoryService) List() ([]*models.Category, error) {
	return s.repo.List()
}

func (s *categoryService) PageList(q repositories.PageQuery) ([]*models.Category, int, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
	return s.repo.PageList(q)
}

// Update renames a category; the slug follows the name.
func (s *categoryService) Update(id, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	c, err := s.repo.Update(id, name, slug.Make(name))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCategoryNotFound
	}
	return c, nil
}

func (s *categoryService) SetActive(id string, active bool) (*models.Category, error) {
	c, err := s.repo.SetActive(id, active)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCategoryNotFound
	}
	log.Printf("[category][status] id=%s active=%t", id, active)
	return c, nil
}

// Delete refuses while subcategories still reference the category;
// callers must empty it first.
func (s *categoryService) Delete(id string) error {
	inUse, err := s.repo.HasSubCategories(id)
	if err != nil {
		return err
	}
	if inUse {
		return ErrCategoryInUse
	}
	ok, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCategoryNotFound
	}
	log.Printf("[category][delete] id=%s", id)
	return nil
}
