package http

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/gst-invoice-extractor/internal/invoice"
	"github.com/garyjia/gst-invoice-extractor/internal/models"
	"github.com/garyjia/gst-invoice-extractor/internal/storage"
	"github.com/garyjia/gst-invoice-extractor/pkg/utils"
)

// previewLength is the number of characters of extracted text echoed back
const previewLength = 1000

// BatchRunner processes a set of saved PDFs
type BatchRunner interface {
	Run(ctx context.Context, paths []string) (*invoice.BatchResult, error)
}

// WorkbookWriter writes extraction results to spreadsheets
type WorkbookWriter interface {
	WriteDocument(doc models.DocumentResult, outputPath string) error
	WriteConsolidated(rows []models.InvoiceRow, outputPath string) error
}

// UploadConfig holds upload limits used by the handlers
type UploadConfig struct {
	MaxFileSize int64
	FormField   string
}

// HealthFunc reports overall health plus component details
type HealthFunc func() (healthy bool, details interface{})

// Handlers contains all HTTP request handlers
type Handlers struct {
	batch    BatchRunner
	exporter WorkbookWriter
	folders  *storage.FolderManager
	upload   UploadConfig
	health   HealthFunc
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	batch BatchRunner,
	exporter WorkbookWriter,
	folders *storage.FolderManager,
	upload UploadConfig,
	logger *zap.Logger,
) *Handlers {
	if upload.FormField == "" {
		upload.FormField = "files"
	}
	return &Handlers{
		batch:    batch,
		exporter: exporter,
		folders:  folders,
		upload:   upload,
		logger:   logger.Named("handlers"),
	}
}

// SetHealthFunc attaches component health to GET /health
func (h *Handlers) SetHealthFunc(fn HealthFunc) {
	h.health = fn
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Components interface{} `json:"components,omitempty"`
}

// FileSummary describes one processed upload
type FileSummary struct {
	Filename    string              `json:"filename"`
	UniqueID    string              `json:"unique_id"`
	Text        string              `json:"text"`
	TablesCount int                 `json:"tables_count"`
	ParsedData  []models.InvoiceRow `json:"parsed_data"`
	ExcelPath   string              `json:"excel_path"`
}

// SkippedFile records an upload that was not processed
type SkippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// UploadResponse is the payload of a successful upload
type UploadResponse struct {
	Files         []FileSummary       `json:"processed_files"`
	Skipped       []SkippedFile       `json:"skipped,omitempty"`
	ExcelDownload string              `json:"excel_download"`
	Consolidated  bool                `json:"consolidated"`
	AllData       []models.InvoiceRow `json:"all_data"`
}

type savedUpload struct {
	id       string
	filename string
	path     string
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	code := http.StatusOK
	if h.health != nil {
		healthy, details := h.health()
		response.Components = details
		if !healthy {
			response.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, Response{
		Success: code == http.StatusOK,
		Data:    response,
	})
}

// Upload handles POST /api/upload
func (h *Handlers) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.logger.Warn("Invalid multipart form", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "no file part",
		})
		return
	}

	headers := form.File[h.upload.FormField]
	if len(headers) == 0 || headers[0].Filename == "" {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "no selected files",
		})
		return
	}

	var saved []savedUpload
	var skipped []SkippedFile
	for _, fh := range headers {
		upload, err := h.saveUpload(fh)
		if err != nil {
			h.logger.Warn("Skipping upload",
				zap.String("filename", fh.Filename),
				zap.Error(err))
			skipped = append(skipped, SkippedFile{Filename: fh.Filename, Reason: skipReason(err)})
			continue
		}
		saved = append(saved, upload)
	}

	paths := make([]string, len(saved))
	for i, s := range saved {
		paths[i] = s.path
	}

	result, err := h.batch.Run(c.Request.Context(), paths)
	if err != nil {
		h.logger.Error("Batch processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "processing interrupted",
		})
		return
	}

	files := make([]FileSummary, len(saved))
	for i, s := range saved {
		doc := result.Documents[i]

		excelPath := h.folders.ExtractedPath(s.id)
		excelName := storage.ExtractedName(s.id)
		if err := h.exporter.WriteDocument(doc, excelPath); err != nil {
			h.logger.Error("Failed to write document workbook",
				zap.String("filename", s.filename),
				zap.Error(err))
			excelName = ""
		}

		files[i] = FileSummary{
			Filename:    s.filename,
			UniqueID:    s.id,
			Text:        preview(doc.Text, previewLength),
			TablesCount: len(doc.Tables),
			ParsedData:  doc.Rows,
			ExcelPath:   excelName,
		}
	}

	// Always create the consolidated workbook
	consolidatedName, consolidatedPath := h.folders.NewConsolidatedPath()
	if err := h.exporter.WriteConsolidated(result.Consolidated.Rows, consolidatedPath); err != nil {
		h.logger.Error("Failed to write consolidated workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to write consolidated workbook",
		})
		return
	}

	h.logger.Info("Upload processed",
		zap.Int("files", len(files)),
		zap.Int("skipped", len(skipped)),
		zap.Int("rows", len(result.Consolidated.Rows)),
		zap.String("consolidated", consolidatedName))

	allData := result.Consolidated.Rows
	if allData == nil {
		allData = []models.InvoiceRow{}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: UploadResponse{
			Files:         files,
			Skipped:       skipped,
			ExcelDownload: consolidatedName,
			Consolidated:  true,
			AllData:       allData,
		},
	})
}

// Download handles GET /api/download/:filename
func (h *Handlers) Download(c *gin.Context) {
	filename := c.Param("filename")

	path, err := h.folders.ProcessedPath(filename)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrPathEscapesBase) {
			h.logger.Error("Failed to resolve download", zap.String("filename", filename), zap.Error(err))
		}
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "file not found",
		})
		return
	}

	c.FileAttachment(path, filename)
}

// saveUpload validates and stores one multipart file
func (h *Handlers) saveUpload(fh *multipart.FileHeader) (savedUpload, error) {
	if err := utils.ValidateUpload(fh.Filename, fh.Size, h.upload.MaxFileSize); err != nil {
		return savedUpload{}, err
	}

	id, path, err := h.folders.NewUploadPath(fh.Filename)
	if err != nil {
		return savedUpload{}, err
	}

	src, err := fh.Open()
	if err != nil {
		return savedUpload{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	if _, err := h.folders.Uploads().SaveStream(path, src, h.upload.MaxFileSize); err != nil {
		return savedUpload{}, err
	}

	// Structural problems are logged only; extraction degrades on its own
	if info, err := utils.ValidatePDF(path, h.upload.MaxFileSize); err != nil {
		h.logger.Warn("PDF failed structural validation",
			zap.String("filename", fh.Filename),
			zap.Error(err))
	} else {
		h.logger.Debug("PDF validated",
			zap.String("filename", fh.Filename),
			zap.Int("pages", info.Pages),
			zap.Int64("size", info.Size))
	}

	return savedUpload{
		id:       id,
		filename: utils.SecureFilename(fh.Filename),
		path:     path,
	}, nil
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, utils.ErrNotPDF):
		return "only PDF files are accepted"
	case errors.Is(err, utils.ErrFileTooLarge):
		return "file exceeds the size limit"
	case errors.Is(err, storage.ErrInvalidName):
		return "invalid file name"
	default:
		return "failed to store file"
	}
}

// preview truncates text to n characters, marking the cut with "..."
func preview(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}
