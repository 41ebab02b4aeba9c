package report

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/storage/mocks"
)

func setupTestApp(service *Service) *fiber.App {
	app := fiber.New()
	handler := NewHandler(service, zap.NewNop())
	handler.RegisterRoutes(app)
	return app
}

func TestHandleListRuns(t *testing.T) {
	db, dbMock := setupMockDB(t)
	service := NewService(NewStore(db), nil, 0, zap.NewNop())
	app := setupTestApp(service)

	rows := sqlmock.NewRows([]string{"id", "trigger_source", "total", "created"}).
		AddRow("run-1", "cli", 3, 1)
	dbMock.ExpectQuery("SELECT \\* FROM `sync_runs`").WillReturnRows(rows)

	resp, err := app.Test(httptest.NewRequest("GET", "/runs", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var runs []Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, 3, runs[0].Total)
}

func TestHandleGetRunNotFound(t *testing.T) {
	db, dbMock := setupMockDB(t)
	service := NewService(NewStore(db), nil, 0, zap.NewNop())
	app := setupTestApp(service)

	dbMock.ExpectQuery("SELECT \\* FROM `sync_runs`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	resp, err := app.Test(httptest.NewRequest("GET", "/runs/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleGetArchive(t *testing.T) {
	client := new(mocks.Client)
	uploader := NewUploader(client, "netbox-zabbix-sync")
	service := NewService(nil, uploader, 24*time.Hour, zap.NewNop())
	app := setupTestApp(service)

	payload := []byte(`{"run":{"id":"run-1"}}`)
	client.On("GetObject", mock.Anything, "netbox-zabbix-sync", "reports/run-1.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(payload)), nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/runs/run-1/archive", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestHandleListRunsWithoutDatabase(t *testing.T) {
	client := new(mocks.Client)
	service := NewService(nil, NewUploader(client, "netbox-zabbix-sync"), 0, zap.NewNop())
	app := setupTestApp(service)

	resp, err := app.Test(httptest.NewRequest("GET", "/runs", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
