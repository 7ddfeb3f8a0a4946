// Package uploadhttp реализует HTTP-интерфейс загрузки файла частями поверх сервиса uploadsvc.
// Основные эндпоинты:
//   - POST /api/check-upload — сколько частей отпечатка уже загружено (для возобновления).
//   - POST /api/upload — multipart-форма с одной частью и полями fileName/fileHash/chunkIndex/totalChunks.
//   - POST /api/merge — собирает части в итоговый файл {fileHash}-{fileName} и удаляет staging-область.
//   - GET /health — число незавершённых загрузок.
//   - GET /metrics — метрики Prometheus.
//
// Ошибки отдаются как {"error": "..."}; соответствие статусам — в pkg/httperrors.
package uploadhttp
