package lofin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lofin_collector/internal/config"
	"lofin_collector/internal/domain"
)

func testAPIConfig(baseURL string) config.APIConfig {
	return config.APIConfig{
		BaseURL:       baseURL,
		Key:           "test-key",
		PageSize:      100,
		Timeout:       5 * time.Second,
		UserAgent:     "lofin-collector-test",
		TLSMinVersion: "1.2",
	}
}

func mustDate(t *testing.T, s string) domain.TargetDate {
	t.Helper()
	d, err := domain.ParseTargetDate(s)
	require.NoError(t, err)
	return d
}

func pageBody(total int, rows ...string) string {
	rowJSON := ""
	for i, r := range rows {
		if i > 0 {
			rowJSON += ","
		}
		rowJSON += r
	}
	return fmt.Sprintf(`{"QWGJK":[
		{"head":[{"list_total_count":%d},{"RESULT":{"CODE":"INFO-000","MESSAGE":"OK"}}]},
		{"row":[%s]}
	]}`, total, rowJSON)
}

func TestClient_FetchPage_RequestShape(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "lofin-collector-test", r.Header.Get("User-Agent"))
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		fmt.Fprint(w, pageBody(1, `{"exe_ymd":"20230131","ep_amt":"1000"}`))
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	res, err := client.FetchPage(context.Background(), mustDate(t, "2023-01-31"), 2)
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotQuery["Key"])
	assert.Equal(t, "json", gotQuery["Type"])
	assert.Equal(t, "2", gotQuery["pIndex"])
	assert.Equal(t, "100", gotQuery["pSize"])
	assert.Equal(t, "2023", gotQuery["fyr"])
	assert.Equal(t, "20230131", gotQuery["exe_ymd"])

	require.Len(t, res.Records, 1)
	assert.Equal(t, 1, res.Total)
	assert.Nil(t, res.More)
}

func TestClient_FetchPage_EmptyObjectBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	res, err := client.FetchPage(context.Background(), mustDate(t, "2023-01-31"), 1)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, -1, res.Total)
}

func TestClient_FetchPage_NoDataResultCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"QWGJK":[{"head":[{"RESULT":{"CODE":"INFO-200","MESSAGE":"no data"}}]}]}`)
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	res, err := client.FetchPage(context.Background(), mustDate(t, "2023-01-31"), 1)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
}

func TestClient_FetchPage_APIErrorResultCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"QWGJK":[{"head":[{"RESULT":{"CODE":"ERROR-290","MESSAGE":"invalid key"}}]}]}`)
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	_, err = client.FetchPage(context.Background(), mustDate(t, "2023-01-31"), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrorClassClient, apiErr.Class)
	assert.Contains(t, apiErr.Message, "ERROR-290")
}

func TestClient_FetchPage_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{http.StatusInternalServerError, ErrorClassServer},
		{http.StatusTooManyRequests, ErrorClassRateLimit},
		{http.StatusMultipleChoices, ErrorClassClient},
		{http.StatusForbidden, ErrorClassClient},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client, err := NewClient(testAPIConfig(srv.URL), testLogger())
			require.NoError(t, err)

			_, err = client.FetchPage(context.Background(), mustDate(t, "2023-01-31"), 1)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.want, apiErr.Class)
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestClient_FetchPage_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>not json</html>`)
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	_, err = client.FetchPage(context.Background(), mustDate(t, "2023-01-31"), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrorClassMalformed, apiErr.Class)
	assert.False(t, retryable(err))
}

func TestClient_FetchPage_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	_, err = client.FetchPage(context.Background(), mustDate(t, "2023-01-31"), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrorClassNetwork, apiErr.Class)
	assert.True(t, retryable(err))
}
