package pubmed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/scientist-search-service/internal/domain"
	"github.com/helixir/scientist-search-service/internal/observability"
	"github.com/helixir/scientist-search-service/internal/papersources"
)

const esearchResponseJSON = `{
	"header": {"type": "esearch", "version": "0.3"},
	"esearchresult": {
		"count": "2",
		"retmax": "2",
		"retstart": "0",
		"idlist": ["12345678", "87654321"],
		"translationset": [],
		"querytranslation": "cancer[All Fields]"
	}
}`

const esearchEmptyResponseJSON = `{
	"header": {"type": "esearch", "version": "0.3"},
	"esearchresult": {
		"count": "0",
		"retmax": "0",
		"retstart": "0",
		"idlist": [],
		"translationset": [],
		"querytranslation": ""
	}
}`

const esearchPhraseNotFoundJSON = `{
	"header": {"type": "esearch", "version": "0.3"},
	"esearchresult": {
		"count": "0",
		"retmax": "0",
		"retstart": "0",
		"idlist": [],
		"errorlist": {"phrasesnotfound": ["nonexistent_term_xyz"], "fieldsnotfound": []}
	}
}`

func TestNewClient(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		client := New(Config{}, zerolog.Nop(), nil)

		assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
		assert.Equal(t, DefaultTimeout, client.config.Timeout)
		assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
		assert.Equal(t, DefaultBurstSize, client.config.BurstSize)
		assert.Equal(t, 0, client.config.MaxRetries)
	})

	t.Run("keeps custom values", func(t *testing.T) {
		client := New(Config{
			BaseURL:   "https://example.test/eutils/",
			APIKey:    "key",
			Timeout:   5 * time.Second,
			RateLimit: 10,
			BurstSize: 5,
		}, zerolog.Nop(), nil)

		assert.Equal(t, "https://example.test/eutils", client.config.BaseURL)
		assert.Equal(t, "key", client.config.APIKey)
		assert.Equal(t, 5*time.Second, client.config.Timeout)
		assert.Equal(t, 10.0, client.config.RateLimit)
		assert.Equal(t, 5, client.config.BurstSize)
	})
}

func TestClient_Name(t *testing.T) {
	client := New(Config{}, zerolog.Nop(), nil)
	assert.Equal(t, "PubMed", client.Name())
}

func TestClient_SearchIDs(t *testing.T) {
	t.Run("sends encoded parameters and returns ids", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/esearch.fcgi", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "pubmed", q.Get("db"))
			assert.Equal(t, "cancer AND (Boston[AD])", q.Get("term"))
			assert.Equal(t, "10", q.Get("retmax"))
			assert.Equal(t, "0", q.Get("retstart"))
			assert.Equal(t, "json", q.Get("retmode"))
			assert.Empty(t, q.Get("api_key"))
			assert.Contains(t, r.URL.RawQuery, "term=cancer+AND+%28Boston%5BAD%5D%29")

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(esearchResponseJSON))
		}))
		defer server.Close()

		client := createTestClient(server.URL)
		ids, err := client.SearchIDs(context.Background(), BuildTerm([]string{"cancer"}, []string{"Boston"}), 10, 0)

		require.NoError(t, err)
		assert.Equal(t, []string{"12345678", "87654321"}, ids)
	})

	t.Run("sends offset and identification", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "20", q.Get("retstart"))
			assert.Equal(t, "secret", q.Get("api_key"))
			assert.Equal(t, "scisearch", q.Get("tool"))
			assert.Equal(t, "ops@example.test", q.Get("email"))
			_, _ = w.Write([]byte(esearchResponseJSON))
		}))
		defer server.Close()

		client := New(Config{
			BaseURL:   server.URL,
			APIKey:    "secret",
			Tool:      "scisearch",
			Email:     "ops@example.test",
			RateLimit: 100,
			BurstSize: 100,
		}, zerolog.Nop(), nil)

		_, err := client.SearchIDs(context.Background(), "x", 10, 20)
		require.NoError(t, err)
	})

	t.Run("caps retmax", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "10000", r.URL.Query().Get("retmax"))
			_, _ = w.Write([]byte(esearchEmptyResponseJSON))
		}))
		defer server.Close()

		_, err := createTestClient(server.URL).SearchIDs(context.Background(), "x", 50000, 0)
		require.NoError(t, err)
	})

	t.Run("no matches is empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(esearchEmptyResponseJSON))
		}))
		defer server.Close()

		ids, err := createTestClient(server.URL).SearchIDs(context.Background(), "nothing", 10, 0)
		require.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
	})

	t.Run("phrase not found is empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(esearchPhraseNotFoundJSON))
		}))
		defer server.Close()

		ids, err := createTestClient(server.URL).SearchIDs(context.Background(), "nonexistent_term_xyz", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		client := createTestClient("http://127.0.0.1:0")

		_, err := client.SearchIDs(context.Background(), "x", 0, 0)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))

		_, err = client.SearchIDs(context.Background(), "x", 10, -1)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestClient_SearchIDs_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantStatus: 500},
		{name: "rate limited", status: http.StatusTooManyRequests, body: "slow down", wantStatus: 429},
		{name: "malformed json", status: http.StatusOK, body: "<html>oops</html>"},
		{name: "top-level error", status: http.StatusOK, body: `{"error":"API rate limit exceeded"}`},
		{name: "missing result", status: http.StatusOK, body: `{"header":{}}`},
		{name: "result error", status: http.StatusOK, body: `{"esearchresult":{"ERROR":"Invalid query"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			ids, err := createTestClient(server.URL).SearchIDs(context.Background(), "x", 10, 0)
			require.Error(t, err)
			assert.Nil(t, ids)
			assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))

			var upErr *domain.UpstreamError
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, "esearch", upErr.Endpoint)
			assert.Equal(t, tt.wantStatus, upErr.StatusCode)
		})
	}
}

func TestClient_SearchIDs_NoRetryByDefault(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := createTestClient(server.URL).SearchIDs(context.Background(), "x", 10, 0)
	require.Error(t, err)
	assert.Equal(t, int32(1), requests.Load())
}

func TestClient_SearchIDs_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := createTestClient(server.URL).SearchIDs(ctx, "x", 10, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_FetchDocuments(t *testing.T) {
	t.Run("batches ids into one request", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			assert.Equal(t, "/efetch.fcgi", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "pubmed", q.Get("db"))
			assert.Equal(t, "12345678,87654321", q.Get("id"))
			assert.Equal(t, "xml", q.Get("retmode"))
			assert.Equal(t, "abstract", q.Get("rettype"))

			w.Header().Set("Content-Type", "text/xml")
			_, _ = w.Write([]byte(efetchResponseXML))
		}))
		defer server.Close()

		docs, err := createTestClient(server.URL).FetchDocuments(context.Background(), []string{"12345678", "87654321"})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "12345678", docs[0].ID)
		assert.Equal(t, "87654321", docs[1].ID)
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("empty ids short-circuit", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
		}))
		defer server.Close()

		docs, err := createTestClient(server.URL).FetchDocuments(context.Background(), nil)
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
		assert.Equal(t, int32(0), requests.Load())
	})

	t.Run("unrecognized envelope is a parse failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<eFetchResult><ERROR>UID=1: cannot get document summary</ERROR></eFetchResult>`))
		}))
		defer server.Close()

		_, err := createTestClient(server.URL).FetchDocuments(context.Background(), []string{"1"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrParseFailure))
		assert.False(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	})

	t.Run("non-200 is upstream unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := createTestClient(server.URL).FetchDocuments(context.Background(), []string{"1"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))

		var upErr *domain.UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, "efetch", upErr.Endpoint)
		assert.Equal(t, http.StatusBadGateway, upErr.StatusCode)
	})
}

func TestClient_RecordsMetrics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(esearchResponseJSON))
	})
	mux.HandleFunc("/efetch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	metrics := observability.NewMetrics("test_pubmed_client")
	client := NewWithHTTPClient(
		Config{BaseURL: server.URL},
		papersources.NewHTTPClient(papersources.HTTPClientConfig{RateLimit: 100, BurstSize: 100}),
		zerolog.Nop(),
		metrics,
	)

	ids, err := client.SearchIDs(context.Background(), "x", 10, 0)
	require.NoError(t, err)
	_, err = client.FetchDocuments(context.Background(), ids)
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.UpstreamRequestsTotal.WithLabelValues("pubmed", "esearch")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.UpstreamRequestsFailed.WithLabelValues("pubmed", "efetch", "status")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.DocumentsFetched))
}

func TestClassifyTransportError(t *testing.T) {
	assert.Equal(t, "timeout", classifyTransportError(context.DeadlineExceeded))
	assert.Equal(t, "canceled", classifyTransportError(context.Canceled))
	assert.Equal(t, "transport", classifyTransportError(errors.New("connection refused")))
}

func createTestClient(baseURL string) *Client {
	cfg := Config{
		BaseURL:   baseURL,
		RateLimit: 100,
		BurstSize: 100,
	}
	return New(cfg, zerolog.Nop(), nil)
}

