package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameron-nye/hearth/internal/models"
	"github.com/cameron-nye/hearth/internal/repository"
	"github.com/cameron-nye/hearth/internal/secrets"
	"github.com/cameron-nye/hearth/internal/service"
	"github.com/cameron-nye/hearth/internal/storage"
)

const testCipherKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// ---------------------------------------------------------------------------
// Fake repositories
// ---------------------------------------------------------------------------

type fakeHouseholds struct {
	repository.HouseholdRepository
	created []*models.Household
}

func (f *fakeHouseholds) Create(ctx context.Context, h *models.Household) (*models.Household, error) {
	h.ID = int64(len(f.created) + 1)
	f.created = append(f.created, h)
	return h, nil
}

type fakeAssignments struct {
	repository.ChoreAssignmentRepository
	items []*models.ChoreAssignment
}

func (f *fakeAssignments) GetByHousehold(ctx context.Context, householdID int64, filters repository.AssignmentFilters) ([]*models.ChoreAssignment, error) {
	return f.items, nil
}

type fakePhotos struct {
	repository.PhotoRepository
	used    int64
	photos  []*models.Photo
	created []*models.Photo
}

func (f *fakePhotos) TotalSizeByHousehold(ctx context.Context, householdID int64) (int64, error) {
	return f.used, nil
}

func (f *fakePhotos) GetByHousehold(ctx context.Context, householdID int64, onlyEnabled bool) ([]*models.Photo, error) {
	return f.photos, nil
}

func (f *fakePhotos) Create(ctx context.Context, p *models.Photo) (*models.Photo, error) {
	p.ID = int64(len(f.created) + 1)
	f.created = append(f.created, p)
	return p, nil
}

type fakeDisplays struct {
	repository.DisplayRepository
	byID     map[int64]*models.Display
	byToken  map[string]*models.Display
	touched  []int64
	rotated  map[int64]string
	settings map[int64]json.RawMessage
}

func newFakeDisplays() *fakeDisplays {
	return &fakeDisplays{
		byID:     map[int64]*models.Display{},
		byToken:  map[string]*models.Display{},
		rotated:  map[int64]string{},
		settings: map[int64]json.RawMessage{},
	}
}

func (f *fakeDisplays) add(d *models.Display) {
	f.byID[d.ID] = d
	f.byToken[d.AuthToken] = d
}

func (f *fakeDisplays) GetByID(ctx context.Context, id int64) (*models.Display, error) {
	return f.byID[id], nil
}

func (f *fakeDisplays) GetByToken(ctx context.Context, token string) (*models.Display, error) {
	return f.byToken[token], nil
}

func (f *fakeDisplays) Update(ctx context.Context, d *models.Display) (*models.Display, error) {
	f.byID[d.ID] = d
	f.settings[d.ID] = d.Settings
	return d, nil
}

func (f *fakeDisplays) UpdateToken(ctx context.Context, id int64, token string) error {
	f.rotated[id] = token
	return nil
}

func (f *fakeDisplays) Touch(ctx context.Context, id int64, seenAt time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeCalendarSources struct {
	repository.CalendarSourceRepository
}

func (f *fakeCalendarSources) GetStale(ctx context.Context, olderThan time.Time) ([]*models.CalendarSource, error) {
	return nil, nil
}

type fakePhotoSources struct {
	repository.PhotoSourceRepository
	byID map[int64]*models.PhotoSource
}

func (f *fakePhotoSources) GetStale(ctx context.Context, olderThan time.Time) ([]*models.PhotoSource, error) {
	return nil, nil
}

func (f *fakePhotoSources) GetByID(ctx context.Context, id int64) (*models.PhotoSource, error) {
	return f.byID[id], nil
}

func (f *fakePhotoSources) Update(ctx context.Context, source *models.PhotoSource) (*models.PhotoSource, error) {
	f.byID[source.ID] = source
	return source, nil
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

type testEnv struct {
	server      *httptest.Server
	households  *fakeHouseholds
	assignments *fakeAssignments
	photos      *fakePhotos
	displays    *fakeDisplays
	albums      *fakePhotoSources
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		households:  &fakeHouseholds{},
		assignments: &fakeAssignments{},
		photos:      &fakePhotos{},
		displays:    newFakeDisplays(),
		albums:      &fakePhotoSources{byID: make(map[int64]*models.PhotoSource)},
	}

	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	cipher, err := secrets.NewCipher(testCipherKey)
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := service.New(nil, logger, store,
		env.households, nil, nil, &fakeCalendarSources{}, nil,
		env.assignments, env.displays, env.photos, env.albums)

	srv := NewServer(svc, logger, cipher, nil, nil, "cron-secret")
	env.server = httptest.NewServer(srv.Handler())
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCreateHouseholdValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/households", "", strings.NewReader(`{"name":"  "}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "POST", "/api/households", "", strings.NewReader(`{"name":"Smith"}`), "application/json")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Household
	decodeBody(t, resp, &created)
	assert.Equal(t, "Smith", created.Name)
}

func TestGetStorageReportsQuota(t *testing.T) {
	env := newTestEnv(t)
	env.photos.used = 400 * 1024 * 1024 // exactly the 80% warning line

	resp := env.do(t, "GET", "/api/households/1/storage", "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var q quotaResponse
	decodeBody(t, resp, &q)
	assert.Equal(t, int64(400*1024*1024), q.UsedBytes)
	assert.Equal(t, storage.QuotaBytes, q.LimitBytes)
	assert.Equal(t, "400.0 MB", q.Used)
	assert.True(t, q.Warning)
}

func multipartUpload(t *testing.T, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="photo.jpg"`)
	hdr.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadPhoto(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartUpload(t, []byte("jpeg-bytes"))
	resp := env.do(t, "POST", "/api/households/1/photos", "", body, contentType)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Photo   models.Photo  `json:"photo"`
		Storage quotaResponse `json:"storage"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, int64(1), result.Photo.HouseholdID)
	assert.Equal(t, int64(10), result.Photo.SizeBytes)
	assert.False(t, result.Storage.Warning)
}

func TestUploadPhotoOverQuota(t *testing.T) {
	env := newTestEnv(t)
	env.photos.used = storage.QuotaBytes - 5

	body, contentType := multipartUpload(t, []byte("more than five bytes"))
	resp := env.do(t, "POST", "/api/households/1/photos", "", body, contentType)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Empty(t, env.photos.created)
}

func TestGetAssignmentsGrouping(t *testing.T) {
	env := newTestEnv(t)
	day1 := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	env.assignments.items = []*models.ChoreAssignment{
		{ID: 1, ChoreID: 1, DueDate: day1},
		{ID: 2, ChoreID: 1, DueDate: day2},
		{ID: 3, ChoreID: 2, DueDate: day1},
	}

	resp := env.do(t, "GET", "/api/households/1/assignments?group_by=day", "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var grouped map[string][]*models.ChoreAssignment
	decodeBody(t, resp, &grouped)
	require.Len(t, grouped, 2)
	assert.Len(t, grouped["2026-09-01"], 2)
	assert.Len(t, grouped["2026-09-02"], 1)

	resp = env.do(t, "GET", "/api/households/1/assignments?bucket=nope", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUpdatePhotoSourcesBatch(t *testing.T) {
	env := newTestEnv(t)
	env.albums.byID[1] = &models.PhotoSource{ID: 1, HouseholdID: 1, Provider: "google", AlbumID: "a1", Enabled: true}

	body := `[{"id":1,"enabled":false},{"id":99,"enabled":true}]`
	resp := env.do(t, "PUT", "/api/photo-sources", "", strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusMultiStatus, resp.StatusCode)

	var out struct {
		Results []photoSourceResult `json:"results"`
	}
	decodeBody(t, resp, &out)
	require.Len(t, out.Results, 2)
	assert.Equal(t, http.StatusOK, out.Results[0].Status)
	assert.False(t, out.Results[0].Source.Enabled)
	assert.Equal(t, http.StatusNotFound, out.Results[1].Status)

	// all items succeeding collapses to a plain 200
	resp = env.do(t, "PUT", "/api/photo-sources", "", strings.NewReader(`[{"id":1,"enabled":true}]`), "application/json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.True(t, env.albums.byID[1].Enabled)
}

func TestKioskRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/kiosk/schedule", "/api/kiosk/photos", "/api/kiosk/settings"} {
		resp := env.do(t, "GET", path, "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		resp.Body.Close()
	}

	resp := env.do(t, "GET", "/api/kiosk/settings", "wrong-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestKioskSettingsSalvagesCorruptBlob(t *testing.T) {
	env := newTestEnv(t)
	env.displays.add(&models.Display{
		ID:          1,
		HouseholdID: 1,
		AuthToken:   "kiosk-token",
		Settings:    json.RawMessage(`{"theme":"neon","slideshow_interval":30}`),
	})

	resp := env.do(t, "GET", "/api/kiosk/settings", "kiosk-token", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var settings models.DisplaySettings
	decodeBody(t, resp, &settings)
	// Unknown theme falls back, valid interval is kept.
	assert.Equal(t, models.DefaultTheme, settings.Theme)
	assert.Equal(t, 30, settings.SlideshowInterval)
}

func TestKioskHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	env.displays.add(&models.Display{ID: 4, HouseholdID: 1, AuthToken: "kiosk-token"})

	resp := env.do(t, "POST", "/api/kiosk/heartbeat", "kiosk-token", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, []int64{4}, env.displays.touched)
}

func TestUpdateDisplaySettingsNormalizes(t *testing.T) {
	env := newTestEnv(t)
	env.displays.add(&models.Display{ID: 2, HouseholdID: 1, AuthToken: "tok2"})

	payload := `{"theme":"light","layout":"bogus","slideshow_interval":1}`
	resp := env.do(t, "PUT", "/api/displays/2/settings", "", strings.NewReader(payload), "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated struct {
		Settings models.DisplaySettings `json:"settings"`
	}
	decodeBody(t, resp, &updated)
	assert.Equal(t, "light", updated.Settings.Theme)
	assert.Equal(t, models.DefaultLayout, updated.Settings.Layout)
	assert.Equal(t, models.DefaultSlideshowInterval, updated.Settings.SlideshowInterval)

	stored, err := models.ParseDisplaySettings(env.displays.settings[2])
	require.NoError(t, err)
	assert.Equal(t, "light", stored.Theme)
}

func TestRotateDisplayToken(t *testing.T) {
	env := newTestEnv(t)
	env.displays.add(&models.Display{ID: 3, HouseholdID: 1, AuthToken: "old"})

	resp := env.do(t, "POST", "/api/displays/3/token", "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]string
	decodeBody(t, resp, &result)
	assert.Len(t, result["token"], 64)
	assert.Equal(t, result["token"], env.displays.rotated[3])
}

func TestSyncEndpointAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/sync", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "POST", "/api/sync", "wrong", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "POST", "/api/sync", "cron-secret", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sweep service.SweepResult
	decodeBody(t, resp, &sweep)
	assert.Empty(t, sweep.Calendars)
	assert.Empty(t, sweep.Albums)
}

func TestEventsBadTimeFilters(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "GET", "/api/households/1/events?from=yesterday", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
