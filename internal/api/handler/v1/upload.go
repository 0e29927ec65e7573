package v1

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/response"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

func isMultipart(ctx *gin.Context) bool {
	return strings.HasPrefix(ctx.ContentType(), "multipart/")
}

// limitBody caps the request body at limit bytes.
func limitBody(ctx *gin.Context, limit int64) {
	if limit > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
	}
}

// parseMultipart reads the whole multipart form, mapping an oversized body to 413.
func parseMultipart(ctx *gin.Context, limit int64) (*multipart.Form, *response.Err) {
	limitBody(ctx, limit)

	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, bodyErr(err, limit)
	}

	return form, nil
}

func bodyErr(err error, limit int64) *response.Err {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return response.ErrPayloadTooLarge(limit)
	}

	return response.ErrBadRequest(err)
}

// readUpload loads an uploaded part. The declared content type wins unless it
// is missing or generic, then the type is sniffed from the content.
func readUpload(fh *multipart.FileHeader) (domain.BlobUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.BlobUpload{}, fmt.Errorf("fh.Open -> %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.BlobUpload{}, fmt.Errorf("io.ReadAll -> %w", err)
	}

	mimeType := mediaType(fh.Header.Get("Content-Type"))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mediaType(http.DetectContentType(data))
	}

	return domain.BlobUpload{
		Name:     fh.Filename,
		MimeType: mimeType,
		Data:     data,
	}, nil
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	return mt
}

// fileFields collects parts named files[<fieldId>].
func fileFields(form *multipart.Form) (map[string]domain.BlobUpload, error) {
	out := map[string]domain.BlobUpload{}

	for key, headers := range form.File {
		fieldID, ok := strings.CutPrefix(key, "files[")
		if !ok || !strings.HasSuffix(fieldID, "]") || len(headers) == 0 {
			continue
		}
		fieldID = strings.TrimSuffix(fieldID, "]")

		upload, err := readUpload(headers[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[fieldID] = upload
	}

	return out, nil
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}

	return ""
}
