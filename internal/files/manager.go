// Package files is the file catalog: metadata records bound to folders and
// uploaders, plus the storage-backend lifecycle for their payloads. Blob
// and metadata writes are not atomic together; the manager sequences them
// and compensates when the second step fails.
package files

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"docstack/internal/apperr"
	"docstack/internal/audit"
	"docstack/internal/catalog"
	"docstack/internal/database"
	"docstack/internal/storage"
	"docstack/internal/util"

	"github.com/google/uuid"
)

// Store is the slice of the metadata store the file catalog needs.
type Store interface {
	CreateFile(ctx context.Context, file database.FileRecord) error
	GetFileByID(ctx context.Context, id uuid.UUID) (database.FileRecord, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error
	ListFilesByFolder(ctx context.Context, folderID uuid.UUID) ([]database.FileRecord, error)
	UpdateFileLastOpened(ctx context.Context, id uuid.UUID, openedBy string, openedAt time.Time) error
	GetFolderByID(ctx context.Context, id uuid.UUID) (database.FolderRecord, error)
	GetEmployeeByID(ctx context.Context, employeeID string) (database.EmployeeRecord, error)
}

type Manager struct {
	logger  *slog.Logger
	store   Store
	backend storage.Backend
	trail   *audit.Trail
	catalog *catalog.Manager
}

func NewManager(logger *slog.Logger, store Store, backend storage.Backend, trail *audit.Trail, catalogManager *catalog.Manager) Manager {
	return Manager{
		logger:  logger,
		store:   store,
		backend: backend,
		trail:   trail,
		catalog: catalogManager,
	}
}

type File struct {
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

func fileFromRecord(rec database.FileRecord) File {
	return File{
		ID:           rec.ID,
		FolderID:     rec.FolderID,
		FileName:     rec.FileName,
		PhysicalKey:  rec.PhysicalKey,
		FileURL:      rec.FileURL,
		Category:     rec.Category,
		UploaderID:   rec.UploaderID,
		UploadedAt:   rec.UploadedAt,
		LastOpenedBy: rec.LastOpenedBy,
		LastOpenedAt: rec.LastOpenedAt,
	}
}

// extension returns the segment after the last dot, or "" when the filename
// has none (or ends with the dot).
func extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return filename[idx+1:]
}

// physicalKey builds the globally unique storage key:
// uploaderID_token[.ext]. The token is 128 bits of randomness, so
// uniqueness needs no coordination between concurrent uploads.
func physicalKey(uploaderID, filename string) (string, error) {
	token, err := util.RandomToken()
	if err != nil {
		return "", err
	}
	key := uploaderID + "_" + token
	if ext := extension(filename); ext != "" {
		key += "." + ext
	}
	return key, nil
}

type UploadParams struct {
	FolderID uuid.UUID
	Uploader string
	Category string
	FileName string
	Content  io.Reader
}

// Upload writes the payload to the storage backend and then the metadata
// record. If the metadata write fails after the blob write succeeded, the
// orphaned blob is removed again: the two stores are reconciled by this
// compensating delete, not by a shared transaction.
func (m *Manager) Upload(ctx context.Context, params UploadParams, meta audit.Meta) (File, error) {
	if params.FileName == "" {
		return File{}, apperr.New(apperr.KindBadRequest, "file name is required")
	}
	if params.Content == nil {
		return File{}, apperr.New(apperr.KindBadRequest, "uploaded file cannot be empty")
	}

	content := bufio.NewReader(params.Content)
	if _, err := content.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, apperr.New(apperr.KindBadRequest, "uploaded file cannot be empty")
		}
		return File{}, apperr.Wrap(apperr.KindTransient, err, "failed to read upload payload")
	}

	if _, err := m.store.GetFolderByID(ctx, params.FolderID); err != nil {
		if errors.Is(err, database.ErrFolderNotFound) {
			return File{}, apperr.Wrap(apperr.KindNotFound, err, "folder not found with ID: %s", params.FolderID)
		}
		return File{}, apperr.Wrap(apperr.KindTransient, err, "failed to look up folder")
	}
	if _, err := m.store.GetEmployeeByID(ctx, params.Uploader); err != nil {
		if errors.Is(err, database.ErrEmployeeNotFound) {
			return File{}, apperr.Wrap(apperr.KindNotFound, err, "uploader not found with ID: %s", params.Uploader)
		}
		return File{}, apperr.Wrap(apperr.KindTransient, err, "failed to look up uploader")
	}

	key, err := physicalKey(params.Uploader, params.FileName)
	if err != nil {
		return File{}, apperr.Wrap(apperr.KindInternal, err, "failed to generate physical key")
	}

	if err := m.backend.Put(ctx, key, content); err != nil {
		if errors.Is(err, storage.ErrBlobExists) {
			return File{}, apperr.Wrap(apperr.KindConflict, err, "physical key collision for %q", key)
		}
		return File{}, apperr.Wrap(apperr.KindTransient, err, "failed to store file payload")
	}

	rec := database.FileRecord{
		ID:          uuid.New(),
		FolderID:    params.FolderID,
		FileName:    params.FileName,
		PhysicalKey: key,
		FileURL:     storage.PublicURL(key),
		Category:    params.Category,
		UploaderID:  params.Uploader,
		UploadedAt:  time.Now().UTC(),
	}

	if err := m.store.CreateFile(ctx, rec); err != nil {
		// The blob is durable but the record is not: remove the orphan so
		// store content stays consistent with metadata.
		if delErr := m.backend.Delete(ctx, key); delErr != nil {
			m.logger.Error("failed to remove orphaned blob after metadata write failure",
				"physical_key", key, "error", delErr)
		}
		if errors.Is(err, database.ErrDuplicatePhysicalKey) {
			return File{}, apperr.Wrap(apperr.KindConflict, err, "physical key collision for %q", key)
		}
		return File{}, apperr.Wrap(apperr.KindTransient, err, "failed to create file record")
	}

	m.trail.Record(ctx, audit.RecordParams{
		Meta:        meta,
		Action:      audit.ActionUpload,
		EntityKind:  audit.EntityFile,
		EntityID:    rec.ID.String(),
		Description: "Uploaded file: " + rec.FileName,
	})

	return fileFromRecord(rec), nil
}

// Download returns the payload stream and the record. A record whose blob
// is gone is a detectable inconsistency and surfaces as NotFound, not as a
// generic failure.
func (m *Manager) Download(ctx context.Context, fileID uuid.UUID, meta audit.Meta) (io.ReadCloser, File, error) {
	rec, err := m.store.GetFileByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, database.ErrFileNotFound) {
			return nil, File{}, apperr.Wrap(apperr.KindNotFound, err, "file not found with ID: %s", fileID)
		}
		return nil, File{}, apperr.Wrap(apperr.KindTransient, err, "failed to look up file")
	}

	content, err := m.backend.Get(ctx, rec.PhysicalKey)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			m.logger.Warn("file record has no backing blob",
				"file_id", rec.ID, "physical_key", rec.PhysicalKey)
			return nil, File{}, apperr.Wrap(apperr.KindNotFound, err, "file not found in storage: %s", rec.FileName)
		}
		return nil, File{}, apperr.Wrap(apperr.KindTransient, err, "failed to retrieve file payload")
	}

	if meta.ActorID != "" {
		if err := m.store.UpdateFileLastOpened(ctx, rec.ID, meta.ActorID, time.Now().UTC()); err != nil {
			m.logger.Warn("failed to update last-opened marker", "file_id", rec.ID, "error", err)
		}
	}

	m.trail.Record(ctx, audit.RecordParams{
		Meta:        meta,
		Action:      audit.ActionDownload,
		EntityKind:  audit.EntityFile,
		EntityID:    rec.ID.String(),
		Description: "Downloaded file: " + rec.FileName,
	})

	return content, fileFromRecord(rec), nil
}

// Delete removes the blob, then the record. A blob that is already gone is
// fine; deletion is idempotent on the storage side.
func (m *Manager) Delete(ctx context.Context, fileID uuid.UUID, meta audit.Meta) error {
	rec, err := m.store.GetFileByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, database.ErrFileNotFound) {
			return apperr.Wrap(apperr.KindNotFound, err, "file not found with ID: %s", fileID)
		}
		return apperr.Wrap(apperr.KindTransient, err, "failed to look up file")
	}

	if err := m.backend.Delete(ctx, rec.PhysicalKey); err != nil {
		return apperr.Wrap(apperr.KindTransient, err, "failed to delete file payload")
	}

	if err := m.store.DeleteFile(ctx, rec.ID); err != nil && !errors.Is(err, database.ErrFileNotFound) {
		return apperr.Wrap(apperr.KindTransient, err, "failed to delete file record")
	}

	m.trail.Record(ctx, audit.RecordParams{
		Meta:        meta,
		Action:      audit.ActionDelete,
		EntityKind:  audit.EntityFile,
		EntityID:    rec.ID.String(),
		Description: "Deleted file: " + rec.FileName,
	})

	return nil
}

// DeleteAllByFolder applies the delete sequence to every file in the
// folder. One file failing does not stop the rest; failures are aggregated
// for the caller.
func (m *Manager) DeleteAllByFolder(ctx context.Context, folderID uuid.UUID, meta audit.Meta) error {
	recs, err := m.store.ListFilesByFolder(ctx, folderID)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, err, "failed to list files in folder")
	}

	var failures []error
	for _, rec := range recs {
		if err := m.Delete(ctx, rec.ID, meta); err != nil {
			m.logger.Error("failed to delete file during folder cleanup",
				"file_id", rec.ID, "folder_id", folderID, "error", err)
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

// ListByFolder returns the folder's files. Each listed file is audited as a
// VIEW by the requesting user.
func (m *Manager) ListByFolder(ctx context.Context, folderID uuid.UUID, meta audit.Meta) ([]File, error) {
	if _, err := m.store.GetFolderByID(ctx, folderID); err != nil {
		if errors.Is(err, database.ErrFolderNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "folder not found with ID: %s", folderID)
		}
		return nil, apperr.Wrap(apperr.KindTransient, err, "failed to look up folder")
	}

	recs, err := m.store.ListFilesByFolder(ctx, folderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, err, "failed to list files")
	}

	result := make([]File, len(recs))
	for i, rec := range recs {
		result[i] = fileFromRecord(rec)
		m.trail.Record(ctx, audit.RecordParams{
			Meta:        meta,
			Action:      audit.ActionView,
			EntityKind:  audit.EntityFile,
			EntityID:    rec.ID.String(),
			Description: "Viewed file listing: " + rec.FileName,
		})
	}
	return result, nil
}

// DeleteFolderAndContents is the orchestration operation: contained files
// first, folder record last, so no file record ever references a missing
// folder. A contents failure aborts the folder delete; stranded records
// would otherwise point at a folder that no longer exists.
func (m *Manager) DeleteFolderAndContents(ctx context.Context, folderID uuid.UUID, meta audit.Meta) error {
	if _, err := m.catalog.GetFolder(ctx, folderID); err != nil {
		return err
	}

	if err := m.DeleteAllByFolder(ctx, folderID, meta); err != nil {
		return apperr.Wrap(apperr.KindTransient, err, "failed to delete folder contents")
	}

	return m.catalog.DeleteFolder(ctx, folderID, meta)
}
