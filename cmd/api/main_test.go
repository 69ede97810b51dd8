package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/incident-report-ai/internal/reports"
	"github.com/wolfman30/incident-report-ai/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, m := setupMetrics()
	require.NotNil(t, handler)
	require.NotNil(t, m.validation)
	require.NotNil(t, m.llm)
	require.NotNil(t, m.reports)

	m.validation.ObserveSessionEvent("created")
	m.llm.ObserveRequest("bedrock", 0.2, nil)
	m.reports.ObserveFinalized("theft", true)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "incident_report_validation_session_events_total")
	assert.Contains(t, body, "incident_report_llm_requests_total")
	assert.Contains(t, body, "go_goroutines")
}

func TestConnectPostgresPoolEmptyURLReturnsNil(t *testing.T) {
	logger := logging.New("error")
	assert.Nil(t, connectPostgresPool(context.Background(), "", logger))
}

func TestBuildReportRepositoryFallsBackToMemory(t *testing.T) {
	repo := buildReportRepository(nil)
	_, ok := repo.(*reports.InMemoryRepository)
	assert.True(t, ok)
}
