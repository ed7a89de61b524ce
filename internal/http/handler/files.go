package handler

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"coursesynth.app/api/internal/http/middleware"
	"coursesynth.app/api/internal/service"
	"github.com/gin-gonic/gin"
)

type FilesHandler struct {
	files *service.FilesService
}

func NewFilesHandler(files *service.FilesService) *FilesHandler {
	return &FilesHandler{files: files}
}

func (h *FilesHandler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	payload, contentType, err := readUpload(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.UserID(c)
	doc, err := h.files.UploadDocument(c.Request.Context(), userID, fileHeader.Filename, contentType, payload)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *FilesHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	payload, contentType, err := readUpload(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.UserID(c)
	img, err := h.files.UploadImage(c.Request.Context(), userID, fileHeader.Filename, contentType, payload)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, img)
}

func (h *FilesHandler) ListDocuments(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	ctx := c.Request.Context()

	courseIDParam := c.Query("course_id")
	if courseIDParam == "" {
		docs, err := h.files.ListUnboundDocuments(ctx, userID)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, docs)
		return
	}

	courseID, err := strconv.ParseInt(courseIDParam, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course_id"})
		return
	}
	docs, err := h.files.ListDocumentsForCourse(ctx, courseID, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// DownloadDocument serves a document's bytes, honoring a single Range header
// with 206 Partial Content / 416 Range Not Satisfiable.
func (h *FilesHandler) DownloadDocument(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	userID, _ := middleware.UserID(c)
	doc, err := h.files.GetDocument(c.Request.Context(), id, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	serveRangedBytes(c, doc.Filename, doc.ContentType, doc.Payload)
}

func (h *FilesHandler) DownloadImage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	userID, _ := middleware.UserID(c)
	img, err := h.files.GetImage(c.Request.Context(), id, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	serveRangedBytes(c, img.Filename, img.ContentType, img.Payload)
}

func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return nil, "", err
	}

	contentType := fh.Header.Get("Content-Type")
	return buf.Bytes(), contentType, nil
}

// serveRangedBytes writes payload to the response, supporting a single
// "bytes=start-end" Range request
// contract: 206 with Content-Range on success, 416 when the range is
// outside the payload, 200 with the full body when no Range is present.
func serveRangedBytes(c *gin.Context, filename, contentType string, payload []byte) {
	total := int64(len(payload))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename=%q`, filename))

	rangeHeader := c.GetHeader("Range")
	if rangeHeader == "" {
		c.Data(http.StatusOK, contentType, payload)
		return
	}

	start, end, ok := parseByteRange(rangeHeader, total)
	if !ok {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", total))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, total))
	c.Data(http.StatusPartialContent, contentType, payload[start:end+1])
}

// parseByteRange handles exactly the single-range "bytes=start-end" form;
// multi-range requests are rejected by falling through to ok=false, which
// the caller turns into a 416.
func parseByteRange(header string, total int64) (start, end int64, ok bool) {
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(spec, ",") {
		return 0, 0, false
	}

	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	switch {
	case parts[0] == "" && parts[1] != "":
		// suffix range: last N bytes
		n, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > total {
			n = total
		}
		start = total - n
		end = total - 1
	case parts[0] != "":
		s, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || s < 0 || s >= total {
			return 0, 0, false
		}
		start = s
		end = total - 1
		if parts[1] != "" {
			e, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil || e < start {
				return 0, 0, false
			}
			if e < end {
				end = e
			}
		}
	default:
		return 0, 0, false
	}

	return start, end, true
}
