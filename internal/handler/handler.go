// Package handler exposes the catalog, file and audit operations over
// HTTP. Handlers translate transport input into manager calls and map the
// error taxonomy onto status codes; no business rule lives here.
package handler

import (
	"errors"
	"log/slog"
	"time"

	"docstack/internal/apperr"
	"docstack/internal/audit"
	"docstack/internal/catalog"
	"docstack/internal/files"
	"docstack/internal/identity"
	"docstack/internal/storage"
	"docstack/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	logger   *slog.Logger
	catalog  *catalog.Manager
	files    *files.Manager
	identity *identity.Manager
	trail    *audit.Trail
	backend  storage.Backend
}

func NewHandler(logger *slog.Logger, catalogManager *catalog.Manager, filesManager *files.Manager, identityManager *identity.Manager, trail *audit.Trail, backend storage.Backend) Handler {
	return Handler{
		logger:   logger,
		catalog:  catalogManager,
		files:    filesManager,
		identity: identityManager,
		trail:    trail,
		backend:  backend,
	}
}

// metaFromRequest collects the attribution forwarded to the audit trail.
// The acting employee comes from the X-Employee-Id header; absent means a
// request without attribution, which the trail records as system.
func metaFromRequest(c *fiber.Ctx) audit.Meta {
	return audit.Meta{
		ActorID:   c.Get("X-Employee-Id"),
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// fail renders the error taxonomy as a response. NoContent is a success
// shape with an empty body; everything else carries a code and message.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()

	if kind == apperr.KindNoContent {
		return c.SendStatus(fiber.StatusNoContent)
	}

	if status >= 500 {
		h.logger.Error("request failed", "path", c.Path(), "error", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": errorBody{
			Code:    kind.String(),
			Message: apperr.MessageOf(err),
		},
	})
}

type folderResponse struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Visibility   string     `json:"visibility"`
	DepartmentID *uuid.UUID `json:"departmentId,omitempty"`
	OwnerID      *string    `json:"ownerId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func folderToResponse(f catalog.Folder) folderResponse {
	resp := folderResponse{
		ID:         f.ID,
		Name:       f.Name,
		Visibility: string(f.Visibility),
		CreatedAt:  f.CreatedAt,
	}
	if f.DepartmentID.IsSet {
		resp.DepartmentID = &f.DepartmentID.Val
	}
	if f.OwnerID.IsSet {
		resp.OwnerID = &f.OwnerID.Val
	}
	return resp
}

type fileResponse struct {
	ID           uuid.UUID  `json:"id"`
	FolderID     uuid.UUID  `json:"folderId"`
	FileName     string     `json:"fileName"`
	FileURL      string     `json:"fileUrl"`
	Category     string     `json:"category,omitempty"`
	UploaderID   string     `json:"uploaderId"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	LastOpenedBy *string    `json:"lastOpenedBy,omitempty"`
	LastOpenedAt *time.Time `json:"lastOpenedAt,omitempty"`
}

func fileToResponse(f files.File) fileResponse {
	resp := fileResponse{
		ID:         f.ID,
		FolderID:   f.FolderID,
		FileName:   f.FileName,
		FileURL:    f.FileURL,
		Category:   f.Category,
		UploaderID: f.UploaderID,
		UploadedAt: f.UploadedAt,
	}
	if f.LastOpenedBy.IsSet {
		resp.LastOpenedBy = &f.LastOpenedBy.Val
	}
	if f.LastOpenedAt.IsSet {
		resp.LastOpenedAt = &f.LastOpenedAt.Val
	}
	return resp
}

// AccessibleFolders handles GET /api/folders/accessible/:employeeId.
func (h *Handler) AccessibleFolders(c *fiber.Ctx) error {
	employeeID := c.Params("employeeId")

	folders, err := h.catalog.AccessibleFolders(c.Context(), employeeID)
	if err != nil {
		return h.fail(c, err)
	}

	resp := make([]folderResponse, len(folders))
	for i, f := range folders {
		resp[i] = folderToResponse(f)
	}
	return c.JSON(resp)
}

// UploadFile handles POST /api/files/upload. The payload arrives as
// multipart form data: folderId, uploaderId, category and the file part.
func (h *Handler) UploadFile(c *fiber.Ctx) error {
	folderID, err := uuid.Parse(c.FormValue("folderId"))
	if err != nil {
		return h.fail(c, apperr.New(apperr.KindBadRequest, "invalid folder ID"))
	}

	uploader := c.FormValue("uploaderId")
	if uploader == "" {
		uploader = c.Get("X-Employee-Id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.fail(c, apperr.New(apperr.KindBadRequest, "uploaded file cannot be empty"))
	}

	content, err := fileHeader.Open()
	if err != nil {
		return h.fail(c, apperr.Wrap(apperr.KindBadRequest, err, "failed to read uploaded file"))
	}
	defer content.Close()

	uploaded, err := h.files.Upload(c.Context(), files.UploadParams{
		FolderID: folderID,
		Uploader: uploader,
		Category: c.FormValue("category"),
		FileName: fileHeader.Filename,
		Content:  content,
	}, metaFromRequest(c))
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fileToResponse(uploaded))
}

// DownloadFile handles GET /api/files/:id/download and streams the blob.
func (h *Handler) DownloadFile(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, apperr.New(apperr.KindBadRequest, "invalid file ID"))
	}

	content, file, err := h.files.Download(c.Context(), fileID, metaFromRequest(c))
	if err != nil {
		return h.fail(c, err)
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+file.FileName+`"`)
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.SendStream(content)
}

// ListFolderFiles handles GET /api/files/folder/:folderId.
func (h *Handler) ListFolderFiles(c *fiber.Ctx) error {
	folderID, err := uuid.Parse(c.Params("folderId"))
	if err != nil {
		return h.fail(c, apperr.New(apperr.KindBadRequest, "invalid folder ID"))
	}

	listed, err := h.files.ListByFolder(c.Context(), folderID, metaFromRequest(c))
	if err != nil {
		return h.fail(c, err)
	}

	resp := make([]fileResponse, len(listed))
	for i, f := range listed {
		resp[i] = fileToResponse(f)
	}
	return c.JSON(resp)
}

// DeleteFile handles DELETE /api/files/:id.
func (h *Handler) DeleteFile(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, apperr.New(apperr.KindBadRequest, "invalid file ID"))
	}

	if err := h.files.Delete(c.Context(), fileID, metaFromRequest(c)); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteFolder handles DELETE /api/folders/:id. Contained files go first,
// the folder record last.
func (h *Handler) DeleteFolder(c *fiber.Ctx) error {
	folderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.fail(c, apperr.New(apperr.KindBadRequest, "invalid folder ID"))
	}

	if err := h.files.DeleteFolderAndContents(c.Context(), folderID, metaFromRequest(c)); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type auditEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	ActorID     string    `json:"actorId,omitempty"`
	Action      string    `json:"action"`
	EntityKind  string    `json:"entityType"`
	EntityID    string    `json:"entityId"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurredAt"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
}

// AuditByEntity handles GET /api/audit/:entityType/:entityId. A failing
// audit store degrades to an empty list, never an error.
func (h *Handler) AuditByEntity(c *fiber.Ctx) error {
	kind := audit.EntityKind(c.Params("entityType"))
	switch kind {
	case audit.EntityFile, audit.EntityFolder, audit.EntityUser:
	default:
		return h.fail(c, apperr.New(apperr.KindBadRequest, "unknown entity type %q", c.Params("entityType")))
	}

	entries := h.trail.ByEntity(c.Context(), kind, c.Params("entityId"))
	resp := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = auditEntryResponse{
			ID:          e.ID,
			ActorID:     e.ActorID,
			Action:      string(e.Action),
			EntityKind:  string(e.EntityKind),
			EntityID:    e.EntityID,
			Description: e.Description,
			OccurredAt:  e.OccurredAt,
			IPAddress:   e.IPAddress,
			UserAgent:   e.UserAgent,
		}
	}
	return c.JSON(resp)
}

type createEmployeeRequest struct {
	EmployeeID   string     `json:"employeeId"`
	Name         string     `json:"name"`
	Password     string     `json:"password"`
	RoleName     string     `json:"roleName"`
	DepartmentID *uuid.UUID `json:"departmentId"`
}

type employeeResponse struct {
	EmployeeID   string     `json:"employeeId"`
	Name         string     `json:"name"`
	RoleName     string     `json:"roleName"`
	DepartmentID *uuid.UUID `json:"departmentId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func employeeToResponse(e identity.Employee) employeeResponse {
	resp := employeeResponse{
		EmployeeID: e.EmployeeID,
		Name:       e.Name,
		RoleName:   e.RoleName,
		CreatedAt:  e.CreatedAt,
	}
	if e.DepartmentID.IsSet {
		resp.DepartmentID = &e.DepartmentID.Val
	}
	return resp
}

// CreateEmployee handles POST /api/employees. The personal folder is
// provisioned together with the account.
func (h *Handler) CreateEmployee(c *fiber.Ctx) error {
	var req createEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperr.Wrap(apperr.KindBadRequest, err, "invalid request body"))
	}

	departmentID := util.None[uuid.UUID]()
	if req.DepartmentID != nil {
		departmentID = util.Some(*req.DepartmentID)
	}

	emp, err := h.identity.CreateEmployee(c.Context(), identity.CreateEmployeeParams{
		EmployeeID:   req.EmployeeID,
		Name:         req.Name,
		Password:     req.Password,
		RoleName:     req.RoleName,
		DepartmentID: departmentID,
	}, metaFromRequest(c))
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(employeeToResponse(emp))
}

// GetEmployee handles GET /api/employees/:employeeId.
func (h *Handler) GetEmployee(c *fiber.Ctx) error {
	emp, err := h.identity.GetEmployee(c.Context(), c.Params("employeeId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(employeeToResponse(emp))
}

// ListDepartments handles GET /api/departments.
func (h *Handler) ListDepartments(c *fiber.Ctx) error {
	departments, err := h.identity.ListDepartments(c.Context())
	if err != nil {
		return h.fail(c, err)
	}

	type departmentResponse struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}
	resp := make([]departmentResponse, len(departments))
	for i, d := range departments {
		resp[i] = departmentResponse{ID: d.ID, Name: d.Name}
	}
	return c.JSON(resp)
}

// ServeBlob handles GET /uploads/:key, the stable public URI recorded on
// every file. It reads straight from the backend so the URI stays valid
// regardless of which backend holds the blob.
func (h *Handler) ServeBlob(c *fiber.Ctx) error {
	key := c.Params("key")

	content, err := h.backend.Get(c.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return h.fail(c, apperr.Wrap(apperr.KindNotFound, err, "no file stored under %q", key))
		}
		return h.fail(c, apperr.Wrap(apperr.KindTransient, err, "failed to read file"))
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.SendStream(content)
}

// Healthz reports process liveness.
func (h *Handler) Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
