package stats_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cityagenda/event-platform/internal/infrastructure/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_RecordView_PostsHit(t *testing.T) {
	var got struct {
		App       string `json:"app"`
		URI       string `json:"uri"`
		IP        string `json:"ip"`
		Timestamp string `json:"timestamp"`
	}
	hits := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/hit", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		hits++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := stats.New(srv.URL, time.Second)
	c.RecordView(context.Background(), "/events/5", "10.0.0.1")

	assert.Equal(t, 1, hits)
	assert.Equal(t, "event-platform", got.App)
	assert.Equal(t, "/events/5", got.URI)
	assert.Equal(t, "10.0.0.1", got.IP)
	assert.NotEmpty(t, got.Timestamp)
}

func TestClient_RecordView_NoBaseURL(t *testing.T) {
	// must be a silent no-op, not a panic or an error
	c := stats.New("", time.Second)
	c.RecordView(context.Background(), "/events/5", "10.0.0.1")
}

func TestClient_ViewCounts_MapsURIsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stats", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "false", q.Get("unique"))
		assert.ElementsMatch(t, []string{"/events/5", "/events/6"}, q["uris"])

		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"app": "event-platform", "uri": "/events/5", "hits": 12},
			{"app": "event-platform", "uri": "/not-an-event", "hits": 99},
		})
	}))
	defer srv.Close()

	c := stats.New(srv.URL, time.Second)
	views := c.ViewCounts(context.Background(), []int64{5, 6}, time.Now().Add(-time.Hour), time.Now())

	assert.EqualValues(t, 12, views[5])
	// missing from the response: stays zero
	assert.EqualValues(t, 0, views[6])
	assert.Len(t, views, 2)
}

func TestClient_ViewCounts_ServerErrorDegradesToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := stats.New(srv.URL, time.Second)
	views := c.ViewCounts(context.Background(), []int64{5}, time.Now().Add(-time.Hour), time.Now())

	assert.EqualValues(t, 0, views[5])
	assert.Len(t, views, 1)
}

func TestClient_ViewCounts_Unreachable(t *testing.T) {
	c := stats.New("http://127.0.0.1:1", 100*time.Millisecond)
	views := c.ViewCounts(context.Background(), []int64{5}, time.Now().Add(-time.Hour), time.Now())

	assert.EqualValues(t, 0, views[5])
}

func TestEventURI(t *testing.T) {
	assert.Equal(t, "/events/42", stats.EventURI(42))
}
