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
	ErrSubCategoryNotFound = errors.New("subcategory not found")
	ErrSubCategoryInUse    = errors.New("subcategory has icons")
)

type SubCategoryService interface {
	Create(categoryID, name, description string) (*models.SubCategory, error)
	GetByID(id string) (*models.SubCategory, error)
	ListByCategory(categoryID string) ([]*models.SubCategory, error)
	PageList(categoryID string, q repositories.PageQuery) ([]*models.SubCategory, int, error)
	Update(id, name, description string) (*models.SubCategory, error)
	SetActive(id string, active bool) (*models.SubCategory, error)
	Delete(id string) error
}

type subCategoryService struct {
	repo       repositories.SubCategoryRepository
	categories repositories.CategoryRepository
}

func NewSubCategoryService(repo repositories.SubCategoryRepository, categories repositories.CategoryRepository) SubCategoryService {
	return &subCategoryService{repo: repo, categories: categories}
}

func (s *subCategoryService) Create(categoryID, name, description string) (*models.SubCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	parent, err := s.categories.GetByID(categoryID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, ErrCategoryNotFound
	}

	sc := &models.SubCategory{
		ID:          uuid.NewString(),
		CategoryID:  parent.ID,
		Name:        name,
		Slug:        slug.Make(name),
		Description: strings.TrimSpace(description),
		Active:      true,
	}
	if err := s.repo.Create(sc); err != nil {
		if errors.Is(err, repositories.ErrMissingParent) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	log.Printf("[subcategory][create] id=%s category=%s slug=%s", sc.ID, sc.CategoryID, sc.Slug)
	return sc, nil
}

func (s *subCategoryService) GetByID(id string) (*models.SubCategory, error) {
	sc, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, ErrSubCategoryNotFound
	}
	return sc, nil
}

func (s *subCategoryService) ListByCategory(categoryID string) ([]*models.SubCategory, error) {
	return s.repo.ListByCategory(categoryID)
}

func (s *subCategoryService) PageList(categoryID string, q repositories.PageQuery) ([]*models.SubCategory, int, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
	return s.repo.PageList(categoryID, q)
}

func (s *subCategoryService) Update(id, name, description string) (*models.SubCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	sc, err := s.repo.Update(id, name, slug.Make(name), strings.TrimSpace(description))
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, ErrSubCategoryNotFound
	}
	return sc, nil
}

func (s *subCategoryService) SetActive(id string, active bool) (*models.SubCategory, error) {
	sc, err := s.repo.SetActive(id, active)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, ErrSubCategoryNotFound
	}
	log.Printf("[subcategory][status] id=%s active=%t", id, active)
	return sc, nil
}

func (s *subCategoryService) Delete(id string) error {
	inUse, err := s.repo.HasIcons(id)
	if err != nil {
		return err
	}
	if inUse {
		return ErrSubCategoryInUse
	}
	ok, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSubCategoryNotFound
	}
	log.Printf("[subcategory][delete] id=%s", id)
	return nil
}
