// handlers_settlement.go - Settlement submission handlers
package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/settlement-form/backend/internal/models"
	"github.com/settlement-form/backend/internal/records"
)

const (
	msgSubmitted      = "Settlement data saved and email sent."
	msgUploadFailed   = "Error uploading file"
	msgProcessFailed  = "Error processing settlement data"
	headerJobID       = "X-Job-Id"
	mimeMsgpack       = "application/msgpack"
	attachmentsField  = "files"
	defaultAttachMIME = "application/octet-stream"
)

// SettlementHandlerImpl implements the SettlementHandler interface
type SettlementHandlerImpl struct {
	svc Submitter
}

// NewSettlementHandler creates a new settlement handler instance
func NewSettlementHandler(svc Submitter) SettlementHandler {
	return &SettlementHandlerImpl{svc: svc}
}

type createSettlementResponse struct {
	Message string             `json:"message"`
	Data    *models.Settlement `json:"data"`
}

// HandleCreateSettlement accepts the multipart settlement form with its attachments.
// The response is sent before attachments reach the drive.
func (h *SettlementHandlerImpl) HandleCreateSettlement(c echo.Context) error {
	var form models.Form
	if err := c.Bind(&form); err != nil {
		return NewInternalError(msgUploadFailed, unwrapHTTPError(err))
	}

	attachments, err := readAttachments(c)
	if err != nil {
		return NewInternalError(msgUploadFailed, err)
	}

	rec, job, err := h.svc.Submit(c.Request().Context(), form, attachments)
	if err != nil {
		return NewInternalError(msgProcessFailed, err)
	}

	c.Response().Header().Set(headerJobID, job.ID)
	return c.JSON(http.StatusCreated, createSettlementResponse{
		Message: msgSubmitted,
		Data:    rec,
	})
}

// HandleGetSettlement returns a stored record as JSON, or msgpack on request
func (h *SettlementHandlerImpl) HandleGetSettlement(c echo.Context) error {
	id := c.Param("id")

	rec, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, records.ErrNotFound) {
		return NewNotFoundError("settlement", id)
	}
	if err != nil {
		return NewInternalError("failed to load settlement", err)
	}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), mimeMsgpack) {
		data, err := msgpack.Marshal(rec)
		if err != nil {
			return NewInternalError("failed to encode settlement", err)
		}
		return c.Blob(http.StatusOK, mimeMsgpack, data)
	}
	return c.JSON(http.StatusOK, rec)
}

// readAttachments loads every "files" part into memory, in submission order.
// A form without file parts yields no attachments.
func readAttachments(c echo.Context) ([]models.Attachment, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}

	mf, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	headers := mf.File[attachmentsField]
	attachments := make([]models.Attachment, 0, len(headers))
	for _, fh := range headers {
		a, err := readAttachment(fh)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, nil
}

func readAttachment(fh *multipart.FileHeader) (models.Attachment, error) {
	src, err := fh.Open()
	if err != nil {
		return models.Attachment{}, fmt.Errorf("open %q: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("read %q: %w", fh.Filename, err)
	}

	mimeType := fh.Header.Get(echo.HeaderContentType)
	if mimeType == "" {
		mimeType = defaultAttachMIME
	}
	return models.Attachment{Name: fh.Filename, MIMEType: mimeType, Data: data}, nil
}

// unwrapHTTPError surfaces the underlying bind failure instead of echo's generic message.
func unwrapHTTPError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Internal != nil {
		return he.Internal
	}
	return err
}
