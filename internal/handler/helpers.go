package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/middleware"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/export"
	"github.com/noah-isme/uni-exam-api/pkg/response"
	"github.com/noah-isme/uni-exam-api/pkg/spreadsheet"
)

// reservedListParams are query keys consumed by the pipeline itself; every
// other query parameter is treated as a discrete field filter.
var reservedListParams = map[string]bool{
	"search":     true,
	"sort_by":    true,
	"sort_order": true,
	"page":       true,
	"page_size":  true,
	"export":     true,
}

// listQuery assembles the record list query from request parameters.
func listQuery(c *gin.Context) listview.Query {
	q := listview.Query{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Filters:   map[string]string{},
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(c.Query("page_size")); err == nil {
		q.PageSize = size
	}
	for key, values := range c.Request.URL.Query() {
		if reservedListParams[key] || len(values) == 0 {
			continue
		}
		q.Filters[key] = values[0]
	}
	return q
}

// exportFormat returns the requested inline export format, or "" for a
// regular JSON listing.
func exportFormat(c *gin.Context) (string, error) {
	format := c.Query("export")
	switch format {
	case "", "csv", "xlsx":
		return format, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %s", format))
	}
}

var (
	csvExporter  = export.NewCSVExporter()
	xlsxExporter = export.NewXLSXExporter()
)

// serveDataset renders the dataset inline as a file attachment named after
// the entity.
func serveDataset(c *gin.Context, data export.Dataset, entity, format string) {
	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case "xlsx":
		payload, err = xlsxExporter.Render(data)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		payload, err = csvExporter.Render(data)
		contentType = "text/csv"
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
		return
	}

	filename := fmt.Sprintf("%s_export.%s", entity, format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, payload)
}

// uploadedWorkbook validates and opens the multipart upload for bulk import.
func uploadedWorkbook(c *gin.Context, maxSize int64) (multipart.File, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing file upload")
	}
	if !spreadsheet.AllowedExtension(fileHeader.Filename) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFile, "only .xlsx and .xls uploads are accepted")
	}
	if maxSize > 0 && fileHeader.Size > maxSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, "uploaded file is too large")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload")
	}
	return file, nil
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentClaims(c)
}
