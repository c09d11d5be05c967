package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/export"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/extractor"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
	"github.com/ginjaninja78/fuel-invoice-extractor/pkg/utils"
)

const statusSuccess = "success"

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

type extractResponse struct {
	Status string `json:"status"`
	types.DocumentResult
}

type batchResponse struct {
	Status string `json:"status"`
	*types.BatchResult
}

type csvResponse struct {
	CSVData  string `json:"csv_data"`
	Filename string `json:"filename"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// badUploadError is an upload problem reported to the client as 400.
type badUploadError struct {
	msg string
}

func (e *badUploadError) Error() string { return e.msg }

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: s.now().Format("2006-01-02T15:04:05.000000"),
		Version:   s.version,
	})
}

// POST /extract
func (s *Server) extractSingle(c *gin.Context) {
	defer s.cleanupForm(c)

	fh, err := c.FormFile("file")
	if err != nil {
		abort(c, http.StatusBadRequest, "missing multipart field \"file\"")
		return
	}
	if !extractor.IsPDF(fh.Filename) {
		abort(c, http.StatusBadRequest, "file must be a PDF")
		return
	}

	doc, err := s.readUpload(fh)
	if err != nil {
		s.uploadError(c, err)
		return
	}

	res, err := s.extractor.Extract(c.Request.Context(), doc)
	if err != nil {
		s.logger.Error("extraction failed", "file", fh.Filename, "error", err)
		abort(c, http.StatusInternalServerError, fmt.Sprintf("error processing PDF: %v", err))
		return
	}

	c.JSON(http.StatusOK, extractResponse{Status: statusSuccess, DocumentResult: *res})
}

// POST /extract-batch
func (s *Server) extractBatch(c *gin.Context) {
	defer s.cleanupForm(c)

	docs, ok := s.readBatch(c)
	if !ok {
		return
	}

	batch := s.extractor.ExtractBatch(c.Request.Context(), docs)
	c.JSON(http.StatusOK, batchResponse{Status: statusSuccess, BatchResult: batch})
}

// POST /extract-csv
func (s *Server) extractCSV(c *gin.Context) {
	defer s.cleanupForm(c)

	docs, ok := s.readBatch(c)
	if !ok {
		return
	}

	batch := s.extractor.ExtractBatch(c.Request.Context(), docs)

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, batch.Records(), s.csvDelimiter); err != nil {
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, csvResponse{
		CSVData:  buf.String(),
		Filename: utils.GenerateOutputFileName("fuel_records_{timestamp}", export.CSV.Extension(), s.now()),
	})
}

// readBatch reads the "files" field. Non-PDF uploads are passed through so
// the batch reports them as skipped.
func (s *Server) readBatch(c *gin.Context) ([]extractor.Document, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		abort(c, http.StatusBadRequest, "expected a multipart form")
		return nil, false
	}

	files := form.File["files"]
	if len(files) == 0 {
		abort(c, http.StatusBadRequest, "missing multipart field \"files\"")
		return nil, false
	}
	if len(files) > s.cfg.MaxBatchFiles {
		abort(c, http.StatusBadRequest, fmt.Sprintf("max %d files per batch", s.cfg.MaxBatchFiles))
		return nil, false
	}

	docs := make([]extractor.Document, 0, len(files))
	for _, fh := range files {
		if !extractor.IsPDF(fh.Filename) {
			docs = append(docs, extractor.Document{Filename: fh.Filename})
			continue
		}
		doc, err := s.readUpload(fh)
		if err != nil {
			s.uploadError(c, err)
			return nil, false
		}
		docs = append(docs, doc)
	}
	return docs, true
}

// readUpload reads an uploaded file, enforcing the size limit.
func (s *Server) readUpload(fh *multipart.FileHeader) (extractor.Document, error) {
	limit := s.cfg.MaxUploadBytes()
	if fh.Size > limit {
		return extractor.Document{}, s.tooLarge(fh.Filename)
	}

	f, err := fh.Open()
	if err != nil {
		return extractor.Document{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close upload", "file", fh.Filename, "error", err)
		}
	}()

	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return extractor.Document{}, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	if int64(len(content)) > limit {
		return extractor.Document{}, s.tooLarge(fh.Filename)
	}

	return extractor.Document{Filename: fh.Filename, Content: content}, nil
}

func (s *Server) tooLarge(filename string) error {
	return &badUploadError{msg: fmt.Sprintf("file %s is too large (max %dMB)", filename, s.cfg.MaxUploadMB)}
}

func (s *Server) uploadError(c *gin.Context, err error) {
	var bad *badUploadError
	if errors.As(err, &bad) {
		abort(c, http.StatusBadRequest, bad.msg)
		return
	}
	s.logger.Error("upload failed", "error", err)
	abort(c, http.StatusInternalServerError, err.Error())
}

// cleanupForm removes multipart scratch files of the request.
func (s *Server) cleanupForm(c *gin.Context) {
	if c.Request.MultipartForm == nil {
		return
	}
	if err := c.Request.MultipartForm.RemoveAll(); err != nil {
		s.logger.Warn("failed to remove multipart temp files", "path", c.Request.URL.Path, "error", err)
	}
}

func abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, errorResponse{Detail: detail})
}
