package services

import (
	"strings"
	"time"

	"iconbuzzer/internal/models"
	"iconbuzzer/internal/repositories"
)

type fakeCategoryRepo struct {
	categories    map[string]*models.Category
	subcategories *fakeSubCategoryRepo
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[string]*models.Category{}}
}

func (f *fakeCategoryRepo) Create(c *models.Category) error {
	for _, existing := range f.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return repositories.ErrDuplicateName
		}
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	f.categories[c.ID] = &cp
	return nil
}

func (f *fakeCategoryRepo) GetByID(id string) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategoryRepo) List() ([]*models.Category, error) {
	var res []*models.Category
	for _, c := range f.categories {
		cp := *c
		res = append(res, &cp)
	}
	return res, nil
}

func (f *fakeCategoryRepo) PageList(q repositories.PageQuery) ([]*models.Category, int, error) {
	all, _ := f.List()
	return all, len(all), nil
}

func (f *fakeCategoryRepo) Update(id, name, slug string) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, nil
	}
	for _, other := range f.categories {
		if other.ID != id && strings.EqualFold(other.Name, name) {
			return nil, repositories.ErrDuplicateName
		}
	}
	c.Name, c.Slug = name, slug
	cp := *c
	return &cp, nil
}

func (f *fakeCategoryRepo) SetActive(id string, active bool) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, nil
	}
	c.Active = active
	if !active && f.subcategories != nil {
		// deactivation cascades to children
		for _, sc := range f.subcategories.subcategories {
			if sc.CategoryID == id {
				sc.Active = false
			}
		}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategoryRepo) Delete(id string) (bool, error) {
	if _, ok := f.categories[id]; !ok {
		return false, nil
	}
	delete(f.categories, id)
	return true, nil
}

func (f *fakeCategoryRepo) HasSubCategories(id string) (bool, error) {
	if f.subcategories == nil {
		return false, nil
	}
	for _, sc := range f.subcategories.subcategories {
		if sc.CategoryID == id {
			return true, nil
		}
	}
	return false, nil
}

type fakeSubCategoryRepo struct {
	subcategories map[string]*models.SubCategory
	iconCount     map[string]int
}

func newFakeSubCategoryRepo() *fakeSubCategoryRepo {
	return &fakeSubCategoryRepo{
		subcategories: map[string]*models.SubCategory{},
		iconCount:     map[string]int{},
	}
}

func (f *fakeSubCategoryRepo) Create(s *models.SubCategory) error {
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	f.subcategories[s.ID] = &cp
	return nil
}

func (f *fakeSubCategoryRepo) GetByID(id string) (*models.SubCategory, error) {
	sc, ok := f.subcategories[id]
	if !ok {
		return nil, nil
	}
	cp := *sc
	return &cp, nil
}

func (f *fakeSubCategoryRepo) ListByCategory(categoryID string) ([]*models.SubCategory, error) {
	var res []*models.SubCategory
	for _, sc := range f.subcategories {
		if sc.CategoryID == categoryID {
			cp := *sc
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (f *fakeSubCategoryRepo) PageList(categoryID string, q repositories.PageQuery) ([]*models.SubCategory, int, error) {
	all, _ := f.ListByCategory(categoryID)
	return all, len(all), nil
}

func (f *fakeSubCategoryRepo) Update(id, name, slug, description string) (*models.SubCategory, error) {
	sc, ok := f.subcategories[id]
	if !ok {
		return nil, nil
	}
	sc.Name, sc.Slug, sc.Description = name, slug, description
	cp := *sc
	return &cp, nil
}

func (f *fakeSubCategoryRepo) SetActive(id string, active bool) (*models.SubCategory, error) {
	sc, ok := f.subcategories[id]
	if !ok {
		return nil, nil
	}
	sc.Active = active
	cp := *sc
	return &cp, nil
}

func (f *fakeSubCategoryRepo) Delete(id string) (bool, error) {
	if _, ok := f.subcategories[id]; !ok {
		return false, nil
	}
	delete(f.subcategories, id)
	return true, nil
}

func (f *fakeSubCategoryRepo) HasIcons(id string) (bool, error) {
	return f.iconCount[id] > 0, nil
}

type fakeIconRepo struct {
	icons map[string]*models.Icon
}

func newFakeIconRepo() *fakeIconRepo {
	return &fakeIconRepo{icons: map[string]*models.Icon{}}
}

func (f *fakeIconRepo) Create(i *models.Icon) error {
	i.CreatedAt = time.Now()
	i.UpdatedAt = i.CreatedAt
	cp := *i
	f.icons[i.ID] = &cp
	return nil
}

func (f *fakeIconRepo) GetByID(id string) (*models.Icon, error) {
	i, ok := f.icons[id]
	if !ok {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (f *fakeIconRepo) PageListBySubCategory(subCategoryID string, q repositories.PageQuery) ([]*models.Icon, int, error) {
	var res []*models.Icon
	for _, i := range f.icons {
		if i.SubCategoryID == subCategoryID && i.Active {
			cp := *i
			res = append(res, &cp)
		}
	}
	return res, len(res), nil
}

func (f *fakeIconRepo) Update(in *models.Icon) (*models.Icon, error) {
	i, ok := f.icons[in.ID]
	if !ok {
		return nil, nil
	}
	i.Name, i.Description, i.IconType = in.Name, in.Description, in.IconType
	i.Tags, i.Access, i.UpdatedBy = in.Tags, in.Access, in.UpdatedBy
	cp := *i
	return &cp, nil
}

func (f *fakeIconRepo) SetActive(id string, active bool) (*models.Icon, error) {
	i, ok := f.icons[id]
	if !ok {
		return nil, nil
	}
	i.Active = active
	cp := *i
	return &cp, nil
}

func (f *fakeIconRepo) Delete(id string) (bool, error) {
	if _, ok := f.icons[id]; !ok {
		return false, nil
	}
	delete(f.icons, id)
	return true, nil
}

func (f *fakeIconRepo) IncrementLikes(id string) (*models.Icon, error) {
	i, ok := f.icons[id]
	if !ok {
		return nil, nil
	}
	i.Likes++
	cp := *i
	return &cp, nil
}

func (f *fakeIconRepo) IncrementDownloads(id string) (*models.Icon, error) {
	i, ok := f.icons[id]
	if !ok {
		return nil, nil
	}
	i.Downloaded++
	cp := *i
	return &cp, nil
}
