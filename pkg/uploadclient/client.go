package uploadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/sir_venger/chunkstage/internal/models"
	"github.com/sir_venger/chunkstage/pkg/uploadproto"
)

// ChunkRequest описывает одну отправляемую часть.
type ChunkRequest struct {
	FileName    string
	FileHash    string
	Index       int
	TotalChunks int
	Reader      io.Reader
}

type Client interface {
	// CheckUpload Узнать, сколько частей уже загружено
	CheckUpload(ctx context.Context, req uploadproto.CheckUploadRequest) (uploadproto.CheckUploadResponse, error)
	// UploadChunk Отправить одну часть
	UploadChunk(ctx context.Context, req ChunkRequest) (uploadproto.UploadResponse, error)
	// Merge Собрать файл из частей
	Merge(ctx context.Context, req uploadproto.MergeRequest) (uploadproto.MergeResponse, error)
}

// APIError описывает ответ сервера с ошибкой. Unwrap возвращает соответствующую ошибку из models,
// так что работает errors.Is(err, models.ErrChunkCountMismatch).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upload API %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	for _, known := range []error{
		models.ErrMissingParameter,
		models.ErrMissingFingerprint,
		models.ErrInvalidParameter,
		models.ErrNoPayload,
		models.ErrStagingAreaMissing,
		models.ErrChunkCountMismatch,
		models.ErrFingerprintMismatch,
		models.ErrMergeFailed,
	} {
		if known.Error() == e.Message {
			return known
		}
	}
	return nil
}

type httpClient struct {
	c       *http.Client
	baseURL string
}

// New создаёт HTTP-клиент сервиса загрузок по базовому адресу.
func New(baseURL string) Client {
	return NewWithHTTPClient(baseURL, &http.Client{})
}

// NewWithHTTPClient позволяет передать свой http.Client (например, из httptest).
func NewWithHTTPClient(baseURL string, c *http.Client) Client {
	return &httpClient{
		c:       c,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// CheckUpload запрашивает инвентаризацию частей.
func (h *httpClient) CheckUpload(ctx context.Context, req uploadproto.CheckUploadRequest) (uploadproto.CheckUploadResponse, error) {
	var out uploadproto.CheckUploadResponse
	err := h.postJSON(ctx, uploadproto.PathCheckUpload, req, &out)
	return out, err
}

// Merge запрашивает сборку файла.
func (h *httpClient) Merge(ctx context.Context, req uploadproto.MergeRequest) (uploadproto.MergeResponse, error) {
	var out uploadproto.MergeResponse
	err := h.postJSON(ctx, uploadproto.PathMerge, req, &out)
	return out, err
}

// UploadChunk стримит multipart-форму с частью через pipe, не буферизуя её целиком.
func (h *httpClient) UploadChunk(ctx context.Context, req ChunkRequest) (uploadproto.UploadResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		_ = pw.CloseWithError(writeChunkForm(mw, req))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+uploadproto.PathUpload, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return uploadproto.UploadResponse{}, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var out uploadproto.UploadResponse
	err = h.do(httpReq, &out)
	return out, err
}

func writeChunkForm(mw *multipart.Writer, req ChunkRequest) error {
	fields := [][2]string{
		{uploadproto.FieldFileName, req.FileName},
		{uploadproto.FieldFileHash, req.FileHash},
		{uploadproto.FieldChunkIndex, strconv.Itoa(req.Index)},
		{uploadproto.FieldTotalChunks, strconv.Itoa(req.TotalChunks)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	if req.Reader != nil {
		part, err := mw.CreateFormFile(uploadproto.FieldFile, req.FileName)
		if err != nil {
			return err
		}
		if _, err = io.Copy(part, req.Reader); err != nil {
			return err
		}
	}

	return mw.Close()
}

func (h *httpClient) postJSON(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return h.do(req, out)
}

func (h *httpClient) do(req *http.Request, out any) error {
	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var e uploadproto.ErrorResponse
		body, _ := io.ReadAll(resp.Body)
		if jsonErr := json.Unmarshal(body, &e); jsonErr != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(body))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
