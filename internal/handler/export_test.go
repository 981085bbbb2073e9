package handler

type (
	ErrorBody          = errorBody
	FolderResponse     = folderResponse
	FileResponse       = fileResponse
	AuditEntryResponse = auditEntryResponse
	EmployeeResponse   = employeeResponse
)
