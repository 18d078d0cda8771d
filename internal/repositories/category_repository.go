package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"iconbuzzer/internal/models"
)

var ErrDuplicateName = errors.New("name already exists")

type CategoryRepository interface {
	Create(c *models.Category) error
	GetByID(id string) (*models.Category, error)
	List() ([]*models.Category, error)
	PageList(q PageQuery) ([]*models.Category, int, error)
	Update(id, name, slug string) (*models.Category, error)
	// SetActive cascades: deactivating a category deactivates its
	// subcategories and their icons in one transaction.
	SetActive(id string, active bool) (*models.Category, error)
	Delete(id string) (bool, error)
	HasSubCategories(id string) (bool, error)
}

type categoryRepository struct {
	DB *sql.DB
}

func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{DB: db}
}

const categoryColumns = `id, name, slug, active, created_at, updated_at`

func scanCategory(row rowScanner) (*models.Category, error) {
	c := &models.Category{}
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *categoryRepository) Create(c *models.Category) error {
	const q = `
		INSERT INTO categories (id, name, slug, active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	if err := r.DB.QueryRow(q, c.ID, c.Name, c.Slug, c.Active).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateName
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *categoryRepository) GetByID(id string) (*models.Category, error) {
	c, err := scanCategory(r.DB.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *categoryRepository) List() ([]*models.Category, error) {
	rows, err := r.DB.Query(`SELECT ` + categoryColumns + ` FROM categories ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var res []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *categoryRepository) PageList(q PageQuery) ([]*models.Category, int, error) {
	where := ``
	args := []any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = `WHERE (name ILIKE $1 OR slug ILIKE $1)`
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM categories `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
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
	sel := fmt.Sprintf(`SELECT %s FROM categories %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		categoryColumns, where, sortCol, dir, len(args)-1, len(args))

	rows, err := r.DB.Query(sel, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("page categories: %w", err)
	}
	defer rows.Close()

	var res []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan category: %w", err)
		}
		res = append(res, c)
	}
	return res, total, rows.Err()
}

func (r *categoryRepository) Update(id, name, slug string) (*models.Category, error) {
	const q = `
		UPDATE categories SET name=$2, slug=$3, updated_at=now()
		WHERE id=$1
		RETURNING ` + categoryColumns
	c, err := scanCategory(r.DB.QueryRow(q, id, name, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (r *categoryRepository) SetActive(id string, active bool) (*models.Category, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("set category active: %w", err)
	}
	defer tx.Rollback()

	c, err := scanCategory(tx.QueryRow(
		`UPDATE categories SET active=$2, updated_at=now() WHERE id=$1 RETURNING `+categoryColumns,
		id, active))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set category active: %w", err)
	}

	// deactivation cascades down; reactivation does not resurrect children
	if !active {
		if _, err := tx.Exec(
			`UPDATE subcategories SET active=FALSE, updated_at=now() WHERE category_id=$1`, id); err != nil {
			return nil, fmt.Errorf("cascade subcategories: %w", err)
		}
		if _, err := tx.Exec(`
			UPDATE icons SET active=FALSE, updated_at=now()
			WHERE subcategory_id IN (SELECT id FROM subcategories WHERE category_id=$1)`, id); err != nil {
			return nil, fmt.Errorf("cascade icons: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("set category active: %w", err)
	}
	return c, nil
}

func (r *categoryRepository) Delete(id string) (bool, error) {
	res, err := r.DB.Exec(`DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *categoryRepository) HasSubCategories(id string) (bool, error) {
	var exists bool
	if err := r.DB.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM subcategories WHERE category_id=$1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("has subcategories: %w", err)
	}
	return exists, nil
}
