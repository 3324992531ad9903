package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"companydocs/internal/model"
	"companydocs/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, company_id, name, file_path, file_size, mime_type, is_public,
		document_type, document_version, document_reference, created_at, updated_at`

// sortColumns whitelists ORDER BY targets; user input never reaches the SQL text.
var sortColumns = map[repository.SortField]string{
	repository.SortByName:      "lower(name)",
	repository.SortByCreatedAt: "created_at",
	repository.SortBySize:      "file_size",
	repository.SortByMimeType:  "mime_type",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d       model.Document
		docType sql.NullString
		version sql.NullInt64
		ref     sql.NullString
	)
	if err := row.Scan(
		&d.ID,
		&d.CompanyID,
		&d.Name,
		&d.FilePath,
		&d.FileSize,
		&d.MimeType,
		&d.IsPublic,
		&docType,
		&version,
		&ref,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if docType.Valid {
		t := model.DocumentType(docType.String)
		d.DocumentType = &t
	}
	if version.Valid {
		v := int(version.Int64)
		d.DocumentVersion = &v
	}
	if ref.Valid {
		r := ref.String
		d.DocumentReference = &r
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, company_id, name, file_path, file_size, mime_type, is_public,
			document_type, document_version, document_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.CompanyID,
		doc.Name,
		doc.FilePath,
		doc.FileSize,
		doc.MimeType,
		doc.IsPublic,
		nullDocumentType(doc.DocumentType),
		nullInt(doc.DocumentVersion),
		nullString(doc.DocumentReference),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns a company's documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, dq repository.DocumentQuery) (*repository.PageResult[model.Document], error) {
	where, args := buildDocumentFilter(dq)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	col, ok := sortColumns[dq.SortField]
	if !ok {
		col = sortColumns[repository.SortByCreatedAt]
	}
	dir := "ASC"
	if dq.SortDesc {
		dir = "DESC"
	}

	n := len(args)
	qList := fmt.Sprintf(`SELECT %s FROM documents WHERE %s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		documentColumns, where, col, dir, dir, n+1, n+2)
	args = append(args, dq.Limit, dq.Offset)

	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

func buildDocumentFilter(dq repository.DocumentQuery) (string, []any) {
	conds := []string{"company_id = $1"}
	args := []any{dq.CompanyID}

	if dq.NameContains != "" {
		args = append(args, "%"+escapeLike(dq.NameContains)+"%")
		conds = append(conds, fmt.Sprintf(`name ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if dq.MimePrefix != "" {
		args = append(args, escapeLike(strings.ToLower(dq.MimePrefix))+"%")
		conds = append(conds, fmt.Sprintf(`lower(mime_type) LIKE $%d ESCAPE '\'`, len(args)))
	}
	if dq.PublicOnly {
		conds = append(conds, "is_public = TRUE")
	}
	return strings.Join(conds, " AND "), args
}

// Update applies the non-nil fields of patch. An empty patch returns the current row.
func (r *DocumentPostgres) Update(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error) {
	if patch.Empty() {
		return r.FindByID(ctx, id)
	}

	var sets []string
	var args []any
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.IsPublic != nil {
		args = append(args, *patch.IsPublic)
		sets = append(sets, fmt.Sprintf("is_public = $%d", len(args)))
	}
	if patch.DocumentType != nil {
		args = append(args, string(*patch.DocumentType))
		sets = append(sets, fmt.Sprintf("document_type = $%d", len(args)))
	}
	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	q := fmt.Sprintf(`UPDATE documents SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), documentColumns)
	return scanDocument(r.db.QueryRowContext(ctx, q, args...))
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullDocumentType(t *model.DocumentType) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*t), Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
