package services

import (
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"iconbuzzer/internal/models"
	"iconbuzzer/internal/repositories"
)

var (
	ErrIconNotFound   = errors.New("icon not found")
	ErrBadIconType    = errors.New("invalid icon type")
	ErrBadIconAccess  = errors.New("invalid icon access")
	ErrMissingFileURL = errors.New("file public url is required")
)

// IconInput carries the writable fields of a catalog entry; the
// counters and audit columns are owned by the service.
type IconInput struct {
	SubCategoryID string          `json:"subcategory_id"`
	Name          string          `json:"name" binding:"required,max=100"`
	File          models.IconFile `json:"file"`
	Description   string          `json:"description"`
	IconType      string          `json:"icon_type" binding:"required"`
	Tags          []string        `json:"tags"`
	Access        string          `json:"access"`
}

type IconService interface {
	Create(createdBy string, in IconInput) (*models.Icon, error)
	GetByID(id string) (*models.Icon, error)
	PageListBySubCategory(subCategoryID string, q repositories.PageQuery) ([]*models.Icon, int, error)
	Update(id, updatedBy string, in IconInput) (*models.Icon, error)
	SetActive(id string, active bool) (*models.Icon, error)
	Delete(id string) error
	Like(id string) (*models.Icon, error)
	Download(id string) (*models.Icon, error)
}

type iconService struct {
	repo          repositories.IconRepository
	subcategories repositories.SubCategoryRepository
}

func NewIconService(repo repositories.IconRepository, subcategories repositories.SubCategoryRepository) IconService {
	return &iconService{repo: repo, subcategories: subcategories}
}

func normalizeIconInput(in *IconInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return ErrEmptyName
	}
	if !models.IsValidIconType(in.IconType) {
		return ErrBadIconType
	}
	if in.Access == "" {
		in.Access = models.IconAccessFree
	}
	if !models.IsValidIconAccess(in.Access) {
		return ErrBadIconAccess
	}
	tags := in.Tags[:0]
	for _, t := range in.Tags {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			tags = append(tags, t)
		}
	}
	in.Tags = tags
	return nil
}

func (s *iconService) Create(createdBy string, in IconInput) (*models.Icon, error) {
	if err := normalizeIconInput(&in); err != nil {
		return nil, err
	}
	if in.File.PublicURL == "" {
		return nil, ErrMissingFileURL
	}

	parent, err := s.subcategories.GetByID(in.SubCategoryID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, ErrSubCategoryNotFound
	}

	icon := &models.Icon{
		ID:            uuid.NewString(),
		SubCategoryID: parent.ID,
		Name:          in.Name,
		File:          in.File,
		Description:   strings.TrimSpace(in.Description),
		IconType:      in.IconType,
		Tags:          in.Tags,
		Access:        in.Access,
		Active:        true,
		CreatedBy:     createdBy,
	}
	if err := s.repo.Create(icon); err != nil {
		if errors.Is(err, repositories.ErrMissingParent) {
			return nil, ErrSubCategoryNotFound
		}
		return nil, err
	}
	log.Printf("[icon][create] id=%s subcategory=%s type=%s", icon.ID, icon.SubCategoryID, icon.IconType)
	return icon, nil
}

func (s *iconService) GetByID(id string) (*models.Icon, error) {
	icon, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if icon == nil {
		return nil, ErrIconNotFound
	}
	return icon, nil
}

func (s *iconService) PageListBySubCategory(subCategoryID string, q repositories.PageQuery) ([]*models.Icon, int, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	return s.repo.PageListBySubCategory(subCategoryID, q)
}

// Update rewrites the editable fields; the file reference and the
// parent subcategory are immutable once created.
func (s *iconService) Update(id, updatedBy string, in IconInput) (*models.Icon, error) {
	if err := normalizeIconInput(&in); err != nil {
		return nil, err
	}
	icon, err := s.repo.Update(&models.Icon{
		ID:          id,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		IconType:    in.IconType,
		Tags:        in.Tags,
		Access:      in.Access,
		UpdatedBy:   updatedBy,
	})
	if err != nil {
		return nil, err
	}
	if icon == nil {
		return nil, ErrIconNotFound
	}
	return icon, nil
}

func (s *iconService) SetActive(id string, active bool) (*models.Icon, error) {
	icon, err := s.repo.SetActive(id, active)
	if err != nil {
		return nil, err
	}
	if icon == nil {
		return nil, ErrIconNotFound
	}
	log.Printf("[icon][status] id=%s active=%t", id, active)
	return icon, nil
}

func (s *iconService) Delete(id string) error {
	ok, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrIconNotFound
	}
	log.Printf("[icon][delete] id=%s", id)
	return nil
}

func (s *iconService) Like(id string) (*models.Icon, error) {
	icon, err := s.repo.IncrementLikes(id)
	if err != nil {
		return nil, err
	}
	if icon == nil {
		return nil, ErrIconNotFound
	}
	return icon, nil
}

func (s *iconService) Download(id string) (*models.Icon, error) {
	icon, err := s.repo.IncrementDownloads(id)
	if err != nil {
		return nil, err
	}
	if icon == nil {
		return nil, ErrIconNotFound
	}
	return icon, nil
}
