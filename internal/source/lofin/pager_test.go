package lofin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPager_DrainsThreePagesAgainstMockServer(t *testing.T) {
	// 100 + 100 + 50 records, total announced on page 1.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("pIndex"))
		counts := map[int]int{1: 100, 2: 100, 3: 50}
		n, ok := counts[page]
		if !ok {
			fmt.Fprint(w, "{}")
			return
		}
		rows := ""
		for i := 0; i < n; i++ {
			if i > 0 {
				rows += ","
			}
			rows += fmt.Sprintf(`{"seq":%d}`, (page-1)*100+i)
		}
		fmt.Fprint(w, pageBody(250, rows))
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	pager := NewPager(client, testRetryer(3), 0, testLogger())
	ds, err := pager.FetchAll(context.Background(), mustDate(t, "2023-01-31"))
	require.NoError(t, err)

	assert.Len(t, ds.Records, 250)
	assert.Equal(t, 250, ds.TotalExpected)
	assert.True(t, ds.Complete())

	// Server-delivered order preserved end to end.
	var first, last struct {
		Seq int `json:"seq"`
	}
	require.NoError(t, json.Unmarshal(ds.Records[0], &first))
	require.NoError(t, json.Unmarshal(ds.Records[249], &last))
	assert.Equal(t, 0, first.Seq)
	assert.Equal(t, 249, last.Seq)
}

func TestPager_StopsWhenTotalReached(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page, _ := strconv.Atoi(r.URL.Query().Get("pIndex"))
		if page == 1 {
			fmt.Fprint(w, pageBody(100, rowsJSON(100, 0)))
			return
		}
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	pager := NewPager(client, testRetryer(3), 0, testLogger())
	ds, err := pager.FetchAll(context.Background(), mustDate(t, "2023-01-31"))
	require.NoError(t, err)

	assert.Len(t, ds.Records, 100)
	// Total reached on page 1, no probe of page 2 needed.
	assert.Equal(t, 1, requests)
}

func rowsJSON(n, offset int) string {
	rows := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			rows += ","
		}
		rows += fmt.Sprintf(`{"seq":%d}`, offset+i)
	}
	return rows
}

func TestPager_ShortPageWithoutTotalEndsLoop(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// 40 records, fewer than the page size of 100, and no total hint.
		fmt.Fprint(w, `{"QWGJK":[{"row":[`+rowsJSON(40, 0)+`]}]}`)
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	pager := NewPager(client, testRetryer(3), 0, testLogger())
	ds, err := pager.FetchAll(context.Background(), mustDate(t, "2023-01-31"))
	require.NoError(t, err)

	assert.Len(t, ds.Records, 40)
	assert.Equal(t, -1, ds.TotalExpected)
	assert.True(t, ds.Complete())
	assert.Equal(t, 1, requests)
}

func TestPager_ExplicitMoreFlagOverridesShortPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("pIndex"))
		switch page {
		case 1:
			// Short page but the server says more data remains.
			fmt.Fprint(w, `{"QWGJK":[{"head":[{"has_more":true}]},{"row":[`+rowsJSON(10, 0)+`]}]}`)
		case 2:
			fmt.Fprint(w, `{"QWGJK":[{"head":[{"has_more":false}]},{"row":[`+rowsJSON(5, 10)+`]}]}`)
		default:
			t.Errorf("unexpected request for page %d", page)
		}
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	pager := NewPager(client, testRetryer(3), 0, testLogger())
	ds, err := pager.FetchAll(context.Background(), mustDate(t, "2023-01-31"))
	require.NoError(t, err)
	assert.Len(t, ds.Records, 15)
}

func TestPager_DuplicatePageIsAnomaly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every page identical with a total that is never reached.
		fmt.Fprint(w, pageBody(1000, rowsJSON(100, 0)))
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	pager := NewPager(client, testRetryer(3), 0, testLogger())
	ds, err := pager.FetchAll(context.Background(), mustDate(t, "2023-01-31"))

	assert.Nil(t, ds)
	assert.ErrorIs(t, err, ErrDataAnomaly)
}

func TestPager_EmptyPageWithExplicitMoreIsAnomaly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"QWGJK":[{"head":[{"has_more":true}]}]}`)
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	pager := NewPager(client, testRetryer(3), 0, testLogger())
	_, err = pager.FetchAll(context.Background(), mustDate(t, "2023-01-31"))
	assert.ErrorIs(t, err, ErrDataAnomaly)
}

func TestPager_RetryExhaustionPropagates(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	pager := NewPager(client, testRetryer(3), 0, testLogger())
	ds, err := pager.FetchAll(context.Background(), mustDate(t, "2023-01-31"))

	assert.Nil(t, ds)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, 3, requests)
}

func TestPager_ClientErrorFailsWithoutRetry(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusMultipleChoices)
	}))
	defer srv.Close()

	client, err := NewClient(testAPIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	pager := NewPager(client, testRetryer(3), 0, testLogger())
	_, err = pager.FetchAll(context.Background(), mustDate(t, "2023-01-31"))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrorClassClient, apiErr.Class)
	assert.Equal(t, 1, requests)
}
