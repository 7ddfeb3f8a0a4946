package models

import "io"

// Inventory отвечает на вопрос о том, сколько частей уже загружено.
type Inventory struct {
	UploadedChunks int
	ChunkSize      int64
}

// ChunkUpload описывает одну входящую часть файла.
type ChunkUpload struct {
	FileName    string
	Fingerprint string
	Index       int
	TotalChunks int
	Payload     io.Reader
}

// ChunkAck подтверждает, что часть сохранена.
type ChunkAck struct {
	ChunkIndex int
}

// MergeRequest содержит параметры сборки итогового файла.
type MergeRequest struct {
	FileName    string
	Fingerprint string
	TotalChunks int
	ChunkSize   int64
	FileSize    int64
}

// MergeResult возвращается после успешной сборки.
type MergeResult struct {
	FilePath string
	FileSize int64
	Written  int64
}
