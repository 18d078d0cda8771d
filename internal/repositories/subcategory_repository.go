package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"iconbuzzer/internal/models"
)

type SubCategoryRepository interface {
	Create(s *models.SubCategory) error
	GetByID(id string) (*models.SubCategory, error)
	ListByCategory(categoryID string) ([]*models.SubCategory, error)
	PageList(categoryID string, q PageQuery) ([]*models.SubCategory, int, error)
	Update(id, name, slug, description string) (*models.SubCategory, error)
	SetActive(id string, active bool) (*models.SubCategory, error)
	Delete(id string) (bool, error)
	HasIcons(id string) (bool, error)
}

type subCategoryRepository struct {
	DB *sql.DB
}

func NewSubCategoryRepository(db *sql.DB) SubCategoryRepository {
	return &subCategoryRepository{DB: db}
}

const subCategoryColumns = `id, category_id, name, slug, description, active, created_at, updated_at`

func scanSubCategory(row rowScanner) (*models.SubCategory, error) {
	s := &models.SubCategory{}
	var desc sql.NullString
	if err := row.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Slug, &desc, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		s.Description = desc.String
	}
	return s, nil
}

func (r *subCategoryRepository) Create(s *models.SubCategory) error {
	const q = `
		INSERT INTO subcategories (id, category_id, name, slug, description, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.DB.QueryRow(q, s.ID, s.CategoryID, s.Name, s.Slug,
		nullIfEmpty(s.Description), s.Active).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code == "23505" {
				return ErrDuplicateName
			}
			if pqErr.Code == "23503" {
				return ErrMissingParent
			}
		}
		return fmt.Errorf("create subcategory: %w", err)
	}
	return nil
}

var ErrMissingParent = errors.New("parent category does not exist")

func (r *subCategoryRepository) GetByID(id string) (*models.SubCategory, error) {
	s, err := scanSubCategory(r.DB.QueryRow(
		`SELECT `+subCategoryColumns+` FROM subcategories WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subcategory: %w", err)
	}
	return s, nil
}

func (r *subCategoryRepository) ListByCategory(categoryID string) ([]*models.SubCategory, error) {
	rows, err := r.DB.Query(
		`SELECT `+subCategoryColumns+` FROM subcategories WHERE category_id=$1 ORDER BY name`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer rows.Close()

	var res []*models.SubCategory
	for rows.Next() {
		s, err := scanSubCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r *subCategoryRepository) PageList(categoryID string, q PageQuery) ([]*models.SubCategory, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	if categoryID != "" {
		args = append(args, categoryID)
		where += fmt.Sprintf(` AND category_id=$%d`, len(args))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		args = append(args, "%"+s+"%")
		where += fmt.Sprintf(` AND (name ILIKE $%d OR slug ILIKE $%d OR description ILIKE $%d)`,
			len(args), len(args), len(args))
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM subcategories `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subcategories: %w", err)
	}

	dir := "DESC"
	if q.Order > 0 {
		dir = "ASC"
	}
	sortCol := "created_at"
	if q.Sort == "name" || q.Sort == "slug" {
		sortCol = q.Sort
	}

	offset := (q.Page - 1) * q.Limit
	args = append(args, q.Limit, offset)
	sel := fmt.Sprintf(`SELECT %s FROM subcategories %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		subCategoryColumns, where, sortCol, dir, len(args)-1, len(args))

	rows, err := r.DB.Query(sel, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("page subcategories: %w", err)
	}
	defer rows.Close()

	var res []*models.SubCategory
	for rows.Next() {
		s, err := scanSubCategory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan subcategory: %w", err)
		}
		res = append(res, s)
	}
	return res, total, rows.Err()
}

func (r *subCategoryRepository) Update(id, name, slug, description string) (*models.SubCategory, error) {
	const q = `
		UPDATE subcategories SET name=$2, slug=$3, description=$4, updated_at=now()
		WHERE id=$1
		RETURNING ` + subCategoryColumns
	s, err := scanSubCategory(r.DB.QueryRow(q, id, name, slug, nullIfEmpty(description)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("update subcategory: %w", err)
	}
	return s, nil
}

func (r *subCategoryRepository) SetActive(id string, active bool) (*models.SubCategory, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("set subcategory active: %w", err)
	}
	defer tx.Rollback()

	s, err := scanSubCategory(tx.QueryRow(
		`UPDATE subcategories SET active=$2, updated_at=now() WHERE id=$1 RETURNING `+subCategoryColumns,
		id, active))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set subcategory active: %w", err)
	}

	if !active {
		if _, err := tx.Exec(
			`UPDATE icons SET active=FALSE, updated_at=now() WHERE subcategory_id=$1`, id); err != nil {
			return nil, fmt.Errorf("cascade icons: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("set subcategory active: %w", err)
	}
	return s, nil
}

func (r *subCategoryRepository) Delete(id string) (bool, error) {
	res, err := r.DB.Exec(`DELETE FROM subcategories WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete subcategory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *subCategoryRepository) HasIcons(id string) (bool, error) {
	var exists bool
	if err := r.DB.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM icons WHERE subcategory_id=$1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("has icons: %w", err)
	}
	return exists, nil
}
