package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"ship-swift/internal/apperrors"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"
	"ship-swift/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// Неизвестные поля в JSON теле отклоняются с 400
	binding.EnableDecoderDisallowUnknownFields = true
}

// EventPublisher публикует доменные события после успешной записи
type EventPublisher interface {
	PublishJobPosted(job *models.CourierJob) error
	PublishRequestCreated(req *models.JobRequest) error
	PublishDirectRequestCreated(req *models.DirectRequest) error
	PublishRequestApproved(a *models.Approval) error
	PublishStatusChanged(change *models.StatusChange) error
	PublishJobDelivered(delivered *models.DeliveredJob) error
	PublishLocationUpdated(loc *models.Location) error
	PublishMessageSent(msg *models.Message) error
}

// Notifier запускает workflow во внешнем сервисе уведомлений
type Notifier interface {
	Trigger(ctx context.Context, workflowID, subscriberID string, payload map[string]interface{}) error
}

// Uploader сохраняет загруженные файлы и возвращает их публичный URL
type Uploader interface {
	Upload(ctx context.Context, kind storage.Kind, ownerID string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, url string) error
}

// DataResponse представляет успешный ответ
type DataResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse представляет структуру ответа с ошибкой
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// respond отправляет данные в конверте {"data": ...}
func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, DataResponse{Data: data})
}

// fail отправляет ошибку с HTTP кодом, соответствующим ее классу
func fail(c *gin.Context, log *logger.Logger, err error) {
	var ae *apperrors.Error
	if errors.As(err, &ae) && ae.Kind != apperrors.KindInternal {
		entry := log.WithError(err).WithField("path", c.FullPath())
		if ae.Kind == apperrors.KindDownstream {
			entry.Error("Downstream dependency failed")
		} else {
			entry.Debug("Request rejected")
		}
		c.AbortWithStatusJSON(ae.HTTPStatus(), ErrorResponse{Error: ae.Err.Error(), Details: ae.Details})
		return
	}

	log.WithError(err).
		WithField("method", c.Request.Method).
		WithField("path", c.FullPath()).
		Error("Request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// bind разбирает JSON тело и проверяет его теги binding
func bind(c *gin.Context, log *logger.Logger, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string][]string)
		for _, ferr := range verrs {
			details[ferr.Field()] = append(details[ferr.Field()], ferr.Error())
		}
		fail(c, log, apperrors.Validationf("invalid request body").WithDetails(details))
		return false
	}
	if errors.Is(err, io.EOF) {
		fail(c, log, apperrors.Validationf("request body is required"))
		return false
	}
	fail(c, log, apperrors.Validationf("invalid request body: %v", err))
	return false
}

// queryInt читает целочисленный параметр запроса
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperrors.Validationf("query parameter %s must be a non-negative integer", name)
	}
	return v, nil
}

// queryBool читает необязательный логический параметр запроса
func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.Validationf("query parameter %s must be a boolean", name)
	}
	return &v, nil
}

// pagination читает limit и offset
func pagination(c *gin.Context) (limit, offset int, err error) {
	if limit, err = queryInt(c, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(c, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// queryStatus читает необязательный фильтр по статусу посылки
func queryStatus(c *gin.Context) (*models.PackageStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return nil, nil
	}
	status := models.PackageStatus(raw)
	if !status.IsValid() {
		return nil, apperrors.Validationf("unknown package status %q", raw)
	}
	return &status, nil
}

// uploadFromForm сохраняет файл из поля формы field
func uploadFromForm(c *gin.Context, uploader Uploader, field string, kind storage.Kind, ownerID string) (string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return "", apperrors.Validationf("multipart field %q is required", field)
	}
	file, err := header.Open()
	if err != nil {
		return "", apperrors.Validationf("failed to read uploaded file: %v", err)
	}
	defer file.Close()

	return uploader.Upload(c.Request.Context(), kind, ownerID, file, header.Size, header.Header.Get("Content-Type"))
}
