// Package uploadproto описывает HTTP-протокол загрузки файла частями: пути, имена полей
// и тела ответов. Используется и сервером, и клиентом.
package uploadproto

// Пути эндпоинтов.
const (
	PathCheckUpload = "/api/check-upload"
	PathUpload      = "/api/upload"
	PathMerge       = "/api/merge"
	PathHealth      = "/health"
	PathMetrics     = "/metrics"
)

// Имена полей multipart-формы и JSON.
const (
	FieldFileName    = "fileName"
	FieldFileHash    = "fileHash"
	FieldChunkIndex  = "chunkIndex"
	FieldTotalChunks = "totalChunks"
	FieldChunkSize   = "chunkSize"
	FieldFileSize    = "fileSize"
	FieldFile        = "file"
)

// CheckUploadRequest: тело POST /api/check-upload.
type CheckUploadRequest struct {
	FileName  string `json:"fileName"`
	FileHash  string `json:"fileHash"`
	ChunkSize Number `json:"chunkSize"`
}

// CheckUploadResponse: сколько частей уже в staging-области.
type CheckUploadResponse struct {
	UploadedChunks int   `json:"uploadedChunks"`
	ChunkSize      int64 `json:"chunkSize"`
}

// UploadResponse подтверждает приём одной части.
type UploadResponse struct {
	Success    bool `json:"success"`
	ChunkIndex int  `json:"chunkIndex"`
}

// MergeRequest: тело POST /api/merge.
type MergeRequest struct {
	FileName    string `json:"fileName"`
	FileHash    string `json:"fileHash"`
	TotalChunks Number `json:"totalChunks"`
	ChunkSize   Number `json:"chunkSize"`
	FileSize    Number `json:"fileSize"`
}

// MergeResponse описывает собранный файл. FileSize содержит заявленный клиентом размер.
type MergeResponse struct {
	Success  bool   `json:"success"`
	FilePath string `json:"filePath"`
	FileSize int64  `json:"fileSize"`
}

// ErrorResponse: тело любого ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse: payload ответа /health.
type HealthResponse struct {
	OK           bool `json:"ok"`
	StagingAreas int  `json:"staging_areas"`
}
