package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"ship-swift/internal/config"
	"ship-swift/internal/database"
	"ship-swift/internal/logger"
	"ship-swift/internal/models"
	"ship-swift/internal/redis"
	"ship-swift/internal/storage"
	"ship-swift/internal/test/dbtest"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/suite"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []models.EventType
}

func (f *fakePublisher) record(t models.EventType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, t)
	return nil
}

func (f *fakePublisher) Events() []models.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.EventType(nil), f.events...)
}

func (f *fakePublisher) PublishJobPosted(*models.CourierJob) error {
	return f.record(models.EventTypeJobPosted)
}

func (f *fakePublisher) PublishRequestCreated(*models.JobRequest) error {
	return f.record(models.EventTypeRequestCreated)
}

func (f *fakePublisher) PublishDirectRequestCreated(*models.DirectRequest) error {
	return f.record(models.EventTypeRequestCreated)
}

func (f *fakePublisher) PublishRequestApproved(*models.Approval) error {
	return f.record(models.EventTypeRequestApproved)
}

func (f *fakePublisher) PublishStatusChanged(*models.StatusChange) error {
	return f.record(models.EventTypeActiveJobStatusChanged)
}

func (f *fakePublisher) PublishJobDelivered(*models.DeliveredJob) error {
	return f.record(models.EventTypeJobDelivered)
}

func (f *fakePublisher) PublishLocationUpdated(*models.Location) error {
	return f.record(models.EventTypeLocationUpdated)
}

func (f *fakePublisher) PublishMessageSent(*models.Message) error {
	return f.record(models.EventTypeMessageSent)
}

type triggered struct {
	workflow   string
	subscriber string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []triggered
}

func (f *fakeNotifier) Trigger(ctx context.Context, workflowID, subscriberID string, payload map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, triggered{workflow: workflowID, subscriber: subscriberID})
	return nil
}

type fakeUploader struct {
	objects map[string][]byte
}

func (f *fakeUploader) Upload(ctx context.Context, kind storage.Kind, ownerID string, reader io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("https://cdn.test/%s/%s/%d", kind, ownerID, len(f.objects))
	f.objects[url] = data
	return url, nil
}

func (f *fakeUploader) Remove(ctx context.Context, url string) error {
	delete(f.objects, url)
	return nil
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details interface{}     `json:"details"`
}

// HandlerTestSuite гоняет HTTP запросы через полный gin роутер
type HandlerTestSuite struct {
	suite.Suite

	Cfg       *config.Config
	DB        *database.DB
	Mini      *miniredis.Miniredis
	Publisher *fakePublisher
	Notifier  *fakeNotifier
	Uploader  *fakeUploader
	Router    *gin.Engine
}

func TestHandlerTestSuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(HandlerTestSuite))
}

func (hts *HandlerTestSuite) SetupTest() {
	hts.Cfg = config.Default()
	hts.DB = dbtest.New(hts.T())
	hts.Mini = miniredis.RunT(hts.T())
	rdb := goredis.NewClient(&goredis.Options{Addr: hts.Mini.Addr()})
	hts.T().Cleanup(func() { _ = rdb.Close() })

	hts.Publisher = &fakePublisher{}
	hts.Notifier = &fakeNotifier{}
	hts.Uploader = &fakeUploader{objects: map[string][]byte{}}
	hts.Router = hts.newRouter(redis.NewFromClient(rdb, logger.NewNop()))
}

func (hts *HandlerTestSuite) newRouter(rc *redis.Client) *gin.Engine {
	return NewRouter(&Deps{
		Config:    hts.Cfg,
		DB:        hts.DB,
		Redis:     rc,
		Publisher: hts.Publisher,
		Notifier:  hts.Notifier,
		Uploader:  hts.Uploader,
		Log:       logger.NewNop(),
	})
}

func (hts *HandlerTestSuite) do(method, path string, body interface{}) (int, envelope) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		hts.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return hts.serve(req)
}

func (hts *HandlerTestSuite) serve(req *http.Request) (int, envelope) {
	w := httptest.NewRecorder()
	hts.Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		hts.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (hts *HandlerTestSuite) decode(env envelope, dest interface{}) {
	hts.Require().NoError(json.Unmarshal(env.Data, dest), string(env.Data))
}

func (hts *HandlerTestSuite) multipartRequest(path string, fields map[string]string, contentType string, content []byte) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		hts.Require().NoError(mw.WriteField(k, v))
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="photo.jpg"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	hts.Require().NoError(err)
	_, err = part.Write(content)
	hts.Require().NoError(err)
	hts.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (hts *HandlerTestSuite) createDriver(id string, verified bool) {
	code, env := hts.do(http.MethodPost, "/api/drivers", gin.H{
		"id":           id,
		"first_name":   "Dan",
		"last_name":    "Driver",
		"email":        id + "@example.com",
		"phone":        "+100000",
		"vehicle_type": "van",
	})
	hts.Require().Equal(http.StatusCreated, code, env.Error)
	if verified {
		code, env = hts.do(http.MethodPatch, "/api/drivers/"+id+"/verification", gin.H{"is_verified": true})
		hts.Require().Equal(http.StatusOK, code, env.Error)
	}
}

func (hts *HandlerTestSuite) createClient(id string, verified bool) {
	code, env := hts.do(http.MethodPost, "/api/clients", gin.H{
		"id":         id,
		"first_name": "Cleo",
		"last_name":  "Client",
		"email":      id + "@example.com",
		"phone":      "+200000",
	})
	hts.Require().Equal(http.StatusCreated, code, env.Error)
	if verified {
		code, env = hts.do(http.MethodPatch, "/api/clients/"+id+"/verification", gin.H{"is_verified": true})
		hts.Require().Equal(http.StatusOK, code, env.Error)
	}
}

func (hts *HandlerTestSuite) createJob(clientID string) *models.CourierJob {
	code, env := hts.do(http.MethodPost, "/api/jobs", gin.H{
		"client_id":        clientID,
		"title":            "Bicycle",
		"pickup_address":   "1 High St",
		"pickup_district":  "north",
		"dropoff_address":  "9 Low Rd",
		"dropoff_district": "south",
		"budget":           120,
		"parcel_size":      "large",
	})
	hts.Require().Equal(http.StatusCreated, code, env.Error)
	job := &models.CourierJob{}
	hts.decode(env, job)
	return job
}

func (hts *HandlerTestSuite) apply(jobID, driverID string) *models.JobRequest {
	code, env := hts.do(http.MethodPost, "/api/jobs/"+jobID+"/requests", gin.H{"driver_id": driverID})
	hts.Require().Equal(http.StatusCreated, code, env.Error)
	req := &models.JobRequest{}
	hts.decode(env, req)
	return req
}

func (hts *HandlerTestSuite) TestApprovalAndDeliveryLifecycle() {
	hts.createClient("c1", true)
	hts.createDriver("d1", true)
	hts.createDriver("d2", true)
	job := hts.createJob("c1")

	r1 := hts.apply(job.ID, "d1")
	r2 := hts.apply(job.ID, "d2")

	code, env := hts.do(http.MethodGet, "/api/jobs/"+job.ID+"/requests/check?driver_id=d1", nil)
	hts.Require().Equal(http.StatusOK, code)
	check := map[string]bool{}
	hts.decode(env, &check)
	hts.True(check["has_request"])

	code, env = hts.do(http.MethodPost, "/api/job-requests/"+r1.ID+"/approve", nil)
	hts.Require().Equal(http.StatusOK, code, env.Error)
	approval := &models.Approval{}
	hts.decode(env, approval)
	hts.Equal(models.PackageStatusClaimed, approval.ActiveJob.JobStatus)
	hts.Equal(models.PackageStatusClaimed, approval.CourierJob.PackageStatus)
	hts.Equal("d1", approval.ActiveJob.DriverID)

	// второе одобрение по тому же заказу отклоняется
	code, env = hts.do(http.MethodPost, "/api/job-requests/"+r2.ID+"/approve", nil)
	hts.Equal(http.StatusConflict, code)
	hts.NotEmpty(env.Error)

	activeID := approval.ActiveJob.ID
	code, env = hts.do(http.MethodPatch, "/api/active-jobs/"+activeID+"/status", gin.H{"status": "collected"})
	hts.Require().Equal(http.StatusOK, code, env.Error)

	code, _ = hts.do(http.MethodPatch, "/api/active-jobs/"+activeID+"/status", gin.H{"status": "claimed"})
	hts.Equal(http.StatusConflict, code)
	code, _ = hts.do(http.MethodPatch, "/api/active-jobs/"+activeID+"/status", gin.H{"status": "lost"})
	hts.Equal(http.StatusBadRequest, code)

	code, env = hts.do(http.MethodGet, "/api/jobs/"+job.ID, nil)
	hts.Require().Equal(http.StatusOK, code)
	current := &models.CourierJob{}
	hts.decode(env, current)
	hts.Equal(models.PackageStatusCollected, current.PackageStatus)

	req := hts.multipartRequest("/api/active-jobs/"+activeID+"/proof", nil, "image/jpeg", []byte("jpeg-bytes"))
	code, env = hts.serve(req)
	hts.Require().Equal(http.StatusCreated, code, env.Error)
	delivered := &models.DeliveredJob{}
	hts.decode(env, delivered)
	hts.True(delivered.DriverConfirmed)
	hts.Equal(models.PackageStatusDelivered, delivered.ActiveJob.JobStatus)
	hts.Equal([]byte("jpeg-bytes"), hts.Uploader.objects[delivered.ProofOfDeliveryURL])

	code, env = hts.do(http.MethodPost, "/api/delivered-jobs/"+delivered.ID+"/confirm", gin.H{"party": "client"})
	hts.Require().Equal(http.StatusOK, code, env.Error)
	hts.decode(env, delivered)
	hts.True(delivered.ClientConfirmed)

	// повторное подтверждение доставки отклоняется, загруженный файл удаляется
	req = hts.multipartRequest("/api/active-jobs/"+activeID+"/proof", nil, "image/jpeg", []byte("again"))
	code, _ = hts.serve(req)
	hts.Equal(http.StatusConflict, code)
	hts.Len(hts.Uploader.objects, 1)

	hts.Equal([]models.EventType{
		models.EventTypeJobPosted,
		models.EventTypeRequestCreated,
		models.EventTypeRequestCreated,
		models.EventTypeRequestApproved,
		models.EventTypeActiveJobStatusChanged,
		models.EventTypeJobDelivered,
		models.EventTypeActiveJobStatusChanged,
	}, hts.Publisher.Events())

	hts.Equal([]triggered{
		{workflow: "request-approved", subscriber: "d1"},
		{workflow: "delivery-status-changed", subscriber: "c1"},
		{workflow: "delivery-status-changed", subscriber: "c1"},
	}, hts.Notifier.calls)
}

func (hts *HandlerTestSuite) TestJobCacheInvalidatedByApproval() {
	hts.createClient("c1", true)
	hts.createDriver("d1", true)
	job := hts.createJob("c1")
	r1 := hts.apply(job.ID, "d1")

	for i := 0; i < 2; i++ {
		code, _ := hts.do(http.MethodGet, "/api/jobs/"+job.ID, nil)
		hts.Require().Equal(http.StatusOK, code)
	}
	hts.True(hts.Mini.Exists(jobKey(job.ID)))

	code, env := hts.do(http.MethodGet, "/api/jobs?open=true", nil)
	hts.Require().Equal(http.StatusOK, code)
	var open []*models.CourierJob
	hts.decode(env, &open)
	hts.Len(open, 1)
	hts.True(hts.Mini.Exists(OpenJobsKey()))

	code, _ = hts.do(http.MethodPost, "/api/job-requests/"+r1.ID+"/approve", nil)
	hts.Require().Equal(http.StatusOK, code)
	hts.False(hts.Mini.Exists(jobKey(job.ID)))
	hts.False(hts.Mini.Exists(OpenJobsKey()))

	code, env = hts.do(http.MethodGet, "/api/jobs/"+job.ID, nil)
	hts.Require().Equal(http.StatusOK, code)
	current := &models.CourierJob{}
	hts.decode(env, current)
	hts.Equal(models.PackageStatusClaimed, current.PackageStatus)

	code, env = hts.do(http.MethodGet, "/api/jobs?open=true", nil)
	hts.Require().Equal(http.StatusOK, code)
	hts.decode(env, &open)
	hts.Empty(open)

	code, env = hts.do(http.MethodGet, "/api/cache/metrics", nil)
	hts.Require().Equal(http.StatusOK, code)
	metrics := map[string]interface{}{}
	hts.decode(env, &metrics)
	hts.Equal(true, metrics["enabled"])
	hts.EqualValues(1, metrics["hits"])
}

func (hts *HandlerTestSuite) TestRequestValidation() {
	hts.createClient("c1", true)
	hts.createDriver("d1", false)
	hts.createDriver("d2", true)
	job := hts.createJob("c1")

	code, env := hts.do(http.MethodPost, "/api/jobs", `{"client_id":"c1","surprise":true}`)
	hts.Equal(http.StatusBadRequest, code)
	hts.Contains(env.Error, "surprise")

	code, env = hts.do(http.MethodPost, "/api/jobs", gin.H{"client_id": "c1"})
	hts.Equal(http.StatusBadRequest, code)
	details, ok := env.Details.(map[string]interface{})
	hts.Require().True(ok, "validation errors carry per-field details")
	hts.Contains(details, "Title")

	code, _ = hts.do(http.MethodPost, "/api/jobs", nil)
	hts.Equal(http.StatusBadRequest, code)

	code, _ = hts.do(http.MethodPost, "/api/jobs/"+job.ID+"/requests", gin.H{"driver_id": "d1"})
	hts.Equal(http.StatusForbidden, code)

	code, _ = hts.do(http.MethodPost, "/api/jobs/missing/requests", gin.H{"driver_id": "d2"})
	hts.Equal(http.StatusNotFound, code)

	code, _ = hts.do(http.MethodGet, "/api/jobs/"+job.ID+"/requests/check", nil)
	hts.Equal(http.StatusBadRequest, code)

	code, _ = hts.do(http.MethodGet, "/api/jobs?limit=-1", nil)
	hts.Equal(http.StatusBadRequest, code)

	code, _ = hts.do(http.MethodGet, "/api/jobs?status=lost", nil)
	hts.Equal(http.StatusBadRequest, code)

	code, _ = hts.do(http.MethodGet, "/api/drivers/nobody", nil)
	hts.Equal(http.StatusNotFound, code)
}

func (hts *HandlerTestSuite) TestDirectRequestApproval() {
	hts.createClient("c1", true)
	hts.createDriver("d1", true)
	job := hts.createJob("c1")

	code, env := hts.do(http.MethodPost, "/api/direct-requests", gin.H{
		"courier_job_id": job.ID,
		"client_id":      "c1",
		"driver_id":      "d1",
	})
	hts.Require().Equal(http.StatusCreated, code, env.Error)
	direct := &models.DirectRequest{}
	hts.decode(env, direct)

	code, env = hts.do(http.MethodPost, "/api/direct-requests/"+direct.ID+"/approve", nil)
	hts.Require().Equal(http.StatusOK, code, env.Error)
	approval := &models.Approval{}
	hts.decode(env, approval)
	hts.Require().NotNil(approval.DirectRequest)
	hts.True(approval.JobRequest.IsApproved)
	hts.Equal(approval.JobRequest.ID, *approval.CourierJob.ApprovedRequestID)

	hts.Equal([]triggered{
		{workflow: "direct-request-created", subscriber: "d1"},
		{workflow: "request-approved", subscriber: "d1"},
	}, hts.Notifier.calls)
}

func (hts *HandlerTestSuite) TestDriverDocumentUpload() {
	hts.createDriver("d1", false)

	req := hts.multipartRequest("/api/drivers/d1/documents", map[string]string{"kind": "vehicle_photo"}, "image/jpeg", []byte("van"))
	code, env := hts.serve(req)
	hts.Require().Equal(http.StatusOK, code, env.Error)
	driver := &models.Driver{}
	hts.decode(env, driver)
	hts.Equal("https://cdn.test/vehicle-photos/d1/0", driver.VehiclePhotoURL)

	req = hts.multipartRequest("/api/drivers/d1/documents", map[string]string{"kind": "selfie"}, "image/jpeg", []byte("x"))
	code, _ = hts.serve(req)
	hts.Equal(http.StatusBadRequest, code)

	req = hts.multipartRequest("/api/drivers/ghost/documents", map[string]string{"kind": "id_document"}, "image/jpeg", []byte("x"))
	code, _ = hts.serve(req)
	hts.Equal(http.StatusNotFound, code)
	hts.Len(hts.Uploader.objects, 1)
}

func (hts *HandlerTestSuite) TestContactsAndMessages() {
	hts.createClient("c1", true)
	hts.createDriver("d1", true)

	code, env := hts.do(http.MethodPost, "/api/contacts", gin.H{"client_id": "c1", "driver_id": "d1"})
	hts.Require().Equal(http.StatusOK, code, env.Error)
	contact := &models.Contact{}
	hts.decode(env, contact)

	code, env = hts.do(http.MethodPost, "/api/contacts/"+contact.ID+"/messages", gin.H{"sender_id": "d1", "content": "On my way"})
	hts.Require().Equal(http.StatusCreated, code, env.Error)

	code, _ = hts.do(http.MethodPost, "/api/contacts/"+contact.ID+"/messages", gin.H{"sender_id": "stranger", "content": "hi"})
	hts.Equal(http.StatusForbidden, code)

	code, env = hts.do(http.MethodGet, "/api/contacts/"+contact.ID+"/messages", nil)
	hts.Require().Equal(http.StatusOK, code)
	var messages []*models.Message
	hts.decode(env, &messages)
	hts.Require().Len(messages, 1)
	hts.Equal("On my way", messages[0].Content)

	code, _ = hts.do(http.MethodGet, "/api/contacts", nil)
	hts.Equal(http.StatusBadRequest, code)

	hts.Contains(hts.Publisher.Events(), models.EventTypeMessageSent)
}

func (hts *HandlerTestSuite) TestQuoteAndHealth() {
	code, env := hts.do(http.MethodGet, "/api/quotes?pickup_district=north&dropoff_district=south&parcel_size=medium", nil)
	hts.Require().Equal(http.StatusOK, code, env.Error)
	quote := &models.Quote{}
	hts.decode(env, quote)
	hts.Equal(135.0, quote.SuggestedBudget)

	code, _ = hts.do(http.MethodGet, "/api/quotes?pickup_district=north", nil)
	hts.Equal(http.StatusBadRequest, code)

	code, env = hts.do(http.MethodGet, "/health", nil)
	hts.Require().Equal(http.StatusOK, code)
	health := &HealthResponse{}
	hts.decode(env, health)
	hts.Equal("healthy", health.Status)
	hts.Equal("healthy", health.Services["redis"])
}

func (hts *HandlerTestSuite) TestRateLimitBlocksAfterLimit() {
	hts.Cfg.RateLimit = config.RateLimitConfig{Enabled: true, DefaultRPM: 2, VIPRPM: 10, BanDuration: 30}
	rdb := goredis.NewClient(&goredis.Options{Addr: hts.Mini.Addr()})
	defer rdb.Close()
	hts.Router = hts.newRouter(redis.NewFromClient(rdb, logger.NewNop()))

	path := "/api/quotes?pickup_district=a&dropoff_district=a"
	for i := 0; i < 2; i++ {
		code, _ := hts.do(http.MethodGet, path, nil)
		hts.Require().Equal(http.StatusOK, code)
	}

	w := httptest.NewRecorder()
	hts.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	hts.Equal(http.StatusTooManyRequests, w.Code)
	hts.Equal("30", w.Header().Get("Retry-After"))

	// другой пользователь не затронут баном
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-User-ID", "u-1")
	code, _ := hts.serve(req)
	hts.Equal(http.StatusOK, code)
}
