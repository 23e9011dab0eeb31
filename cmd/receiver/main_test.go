package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"admission-intake/internal/common/config"
	"admission-intake/internal/common/logger"
)

func TestHealthMux(t *testing.T) {
	var ready atomic.Bool
	mux := newHealthMux(&ready)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/health").Code)
	assert.Contains(t, get("/health").Body.String(), `"status":"healthy"`)

	assert.Equal(t, http.StatusServiceUnavailable, get("/ready").Code)
	ready.Store(true)
	assert.Equal(t, http.StatusOK, get("/ready").Code)

	metrics := get("/metrics")
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "intake_connections_active")
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, zap.NewNop(), "flaky op")

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	err = retryWithBackoff(func() error { return errors.New("down") }, 2, time.Millisecond, zap.NewNop(), "dead op")
	assert.ErrorContains(t, err, "dead op failed after 2 attempts: down")
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "applications.db"),
			Sequence:   config.SequenceAutoIncrement,
		},
	}

	st, closeStore, err := openStore(t.Context(), cfg, zap.NewNop(), logger.NewNoOpLogger())
	require.NoError(t, err)
	defer closeStore()

	require.NoError(t, st.Migrate(t.Context()))
}

func TestBuildPublishers_NoneEnabled(t *testing.T) {
	assert.Empty(t, buildPublishers(t.Context(), &config.Config{}, zap.NewNop()))
}

func TestBuildPublishers_NotificationsShareSession(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := &config.Config{}
	cfg.Notifications.AWS.Region = "eu-west-1"
	cfg.Notifications.SNS.Enabled = true
	cfg.Notifications.SNS.TopicARN = "arn:aws:sns:eu-west-1:000000000000:applications"
	cfg.Notifications.SES.Enabled = true
	cfg.Notifications.SES.FromEmail = "intake@example.edu"
	cfg.Notifications.SES.ToEmail = "admissions@example.edu"

	var names []string
	for _, p := range buildPublishers(t.Context(), cfg, zap.NewNop()) {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"sns-topic", "ses-email"}, names)
}

func TestBuildPublishers_MissingRegionSkipsNotifiers(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notifications.SNS.Enabled = true

	assert.Empty(t, buildPublishers(t.Context(), cfg, zap.NewNop()))
}
