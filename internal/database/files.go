package database

import (
	"context"
	"errors"
	"time"

	"docstack/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrFileNotFound = errors.New("file not found")
	// ErrDuplicatePhysicalKey means the generated storage key collided.
	// With 128-bit random tokens this is effectively unreachable, but a
	// collision must never silently overwrite an existing record.
	ErrDuplicatePhysicalKey = errors.New("physical key already exists")
)

type FileRecord struct {
	ID           uuid.UUID
	FolderID     uuid.UUID
	FileName     string
	PhysicalKey  string
	FileURL      string
	Category     string
	UploaderID   string
	UploadedAt   time.Time
	LastOpenedBy util.Optional[string]
	LastOpenedAt util.Optional[time.Time]
}

const fileColumns = `id, folder_id, file_name, physical_key, file_url, category, uploader_id, uploaded_at, last_opened_by, last_opened_at`

func scanFile(row pgx.Row) (FileRecord, error) {
	var file FileRecord
	err := row.Scan(&file.ID, &file.FolderID, &file.FileName, &file.PhysicalKey, &file.FileURL,
		&file.Category, &file.UploaderID, &file.UploadedAt, &file.LastOpenedBy, &file.LastOpenedAt)
	return file, err
}

func (db *Database) CreateFile(ctx context.Context, file FileRecord) error {
	_, err := db.Pool.Exec(ctx, `INSERT INTO tbl_file (id, folder_id, file_name, physical_key, file_url, category, uploader_id, uploaded_at, last_opened_by, last_opened_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		file.ID, file.FolderID, file.FileName, file.PhysicalKey, file.FileURL,
		file.Category, file.UploaderID, file.UploadedAt, file.LastOpenedBy, file.LastOpenedAt)
	if isUniqueViolation(err) {
		return ErrDuplicatePhysicalKey
	}
	return err
}

func (db *Database) GetFileByID(ctx context.Context, id uuid.UUID) (FileRecord, error) {
	file, err := scanFile(db.Pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM tbl_file WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return file, ErrFileNotFound
		}
		return file, err
	}
	return file, nil
}

func (db *Database) DeleteFile(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM tbl_file WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

func (db *Database) ListFilesByFolder(ctx context.Context, folderID uuid.UUID) ([]FileRecord, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+fileColumns+` FROM tbl_file WHERE folder_id = $1 ORDER BY uploaded_at`, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// UpdateFileLastOpened records who opened the file and when.
func (db *Database) UpdateFileLastOpened(ctx context.Context, id uuid.UUID, openedBy string, openedAt time.Time) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE tbl_file SET last_opened_by = $1, last_opened_at = $2 WHERE id = $3`,
		openedBy, openedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}
