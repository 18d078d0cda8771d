package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"iconbuzzer/internal/models"
)

type IconRepository interface {
	Create(i *models.Icon) error
	GetByID(id string) (*models.Icon, error)
	PageListBySubCategory(subCategoryID string, q PageQuery) ([]*models.Icon, int, error)
	Update(i *models.Icon) (*models.Icon, error)
	SetActive(id string, active bool) (*models.Icon, error)
	Delete(id string) (bool, error)
	// counter bumps are single atomic increments
	IncrementLikes(id string) (*models.Icon, error)
	IncrementDownloads(id string) (*models.Icon, error)
}

type iconRepository struct {
	DB *sql.DB
}

func NewIconRepository(db *sql.DB) IconRepository {
	return &iconRepository{DB: db}
}

const iconColumns = `
	id, subcategory_id, name,
	file_original_name, file_ext, file_mimetype, file_size, file_original_url, file_public_url,
	description, icon_type, tags, access, likes, downloaded, active,
	created_by, updated_by, created_at, updated_at`

func scanIcon(row rowScanner) (*models.Icon, error) {
	i := &models.Icon{}
	var (
		origName  sql.NullString
		desc      sql.NullString
		updatedBy sql.NullString
		tags      pq.StringArray
	)
	err := row.Scan(
		&i.ID, &i.SubCategoryID, &i.Name,
		&origName, &i.File.Ext, &i.File.Mimetype, &i.File.Size, &i.File.OriginalURL, &i.File.PublicURL,
		&desc, &i.IconType, &tags, &i.Access, &i.Likes, &i.Downloaded, &i.Active,
		&i.CreatedBy, &updatedBy, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if origName.Valid {
		i.File.OriginalName = origName.String
	}
	if desc.Valid {
		i.Description = desc.String
	}
	if updatedBy.Valid {
		i.UpdatedBy = updatedBy.String
	}
	i.Tags = []string(tags)
	return i, nil
}

func (r *iconRepository) Create(i *models.Icon) error {
	const q = `
		INSERT INTO icons (
			id, subcategory_id, name,
			file_original_name, file_ext, file_mimetype, file_size, file_original_url, file_public_url,
			description, icon_type, tags, access, active, created_by
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at
	`
	err := r.DB.QueryRow(q,
		i.ID, i.SubCategoryID, i.Name,
		nullIfEmpty(i.File.OriginalName), i.File.Ext, i.File.Mimetype, i.File.Size,
		i.File.OriginalURL, i.File.PublicURL,
		nullIfEmpty(i.Description), i.IconType, pq.Array(i.Tags), i.Access, i.Active, i.CreatedBy,
	).Scan(&i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrMissingParent
		}
		return fmt.Errorf("create icon: %w", err)
	}
	return nil
}

func (r *iconRepository) GetByID(id string) (*models.Icon, error) {
	i, err := scanIcon(r.DB.QueryRow(`SELECT `+iconColumns+` FROM icons WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get icon: %w", err)
	}
	return i, nil
}

var iconSortColumns = map[string]string{
	"created_at": "created_at",
	"createdAt":  "created_at",
	"name":       "name",
	"likes":      "likes",
	"downloaded": "downloaded",
}

func (r *iconRepository) PageListBySubCategory(subCategoryID string, q PageQuery) ([]*models.Icon, int, error) {
	where := `WHERE subcategory_id = $1 AND active = TRUE`
	args := []any{subCategoryID}
	if s := strings.TrimSpace(q.Search); s != "" {
		args = append(args, "%"+s+"%")
		where += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d
			OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE t ILIKE $%d))`,
			len(args), len(args), len(args))
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM icons `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count icons: %w", err)
	}

	sortCol, ok := iconSortColumns[q.Sort]
	if !ok {
		sortCol = "created_at"
	}
	dir := "DESC"
	if q.Order > 0 {
		dir = "ASC"
	}

	offset := (q.Page - 1) * q.Limit
	args = append(args, q.Limit, offset)
	sel := fmt.Sprintf(`SELECT %s FROM icons %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		iconColumns, where, sortCol, dir, len(args)-1, len(args))

	rows, err := r.DB.Query(sel, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("page icons: %w", err)
	}
	defer rows.Close()

	var res []*models.Icon
	for rows.Next() {
		i, err := scanIcon(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan icon: %w", err)
		}
		res = append(res, i)
	}
	return res, total, rows.Err()
}

func (r *iconRepository) Update(i *models.Icon) (*models.Icon, error) {
	const q = `
		UPDATE icons SET
			name=$2, description=$3, icon_type=$4, tags=$5, access=$6,
			updated_by=$7, updated_at=now()
		WHERE id=$1
		RETURNING ` + iconColumns
	out, err := scanIcon(r.DB.QueryRow(q, i.ID, i.Name, nullIfEmpty(i.Description),
		i.IconType, pq.Array(i.Tags), i.Access, nullIfEmpty(i.UpdatedBy)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update icon: %w", err)
	}
	return out, nil
}

func (r *iconRepository) SetActive(id string, active bool) (*models.Icon, error) {
	i, err := scanIcon(r.DB.QueryRow(
		`UPDATE icons SET active=$2, updated_at=now() WHERE id=$1 RETURNING `+iconColumns, id, active))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set icon active: %w", err)
	}
	return i, nil
}

func (r *iconRepository) Delete(id string) (bool, error) {
	res, err := r.DB.Exec(`DELETE FROM icons WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete icon: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *iconRepository) IncrementLikes(id string) (*models.Icon, error) {
	i, err := scanIcon(r.DB.QueryRow(
		`UPDATE icons SET likes=likes+1, updated_at=now() WHERE id=$1 RETURNING `+iconColumns, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("like icon: %w", err)
	}
	return i, nil
}

func (r *iconRepository) IncrementDownloads(id string) (*models.Icon, error) {
	i, err := scanIcon(r.DB.QueryRow(
		`UPDATE icons SET downloaded=downloaded+1, updated_at=now() WHERE id=$1 RETURNING `+iconColumns, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("count download: %w", err)
	}
	return i, nil
}
