package dephell

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry serves the two PyPI JSON API shapes the provider reads:
// project metadata at /pypi/{name}/json and release metadata at
// /pypi/{name}/{version}/json.
func fakeRegistry(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/pypi/flask/json", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `{
			"info": {"name": "Flask"},
			"releases": {
				"1.0.0": [],
				"2.0.0": [],
				"2021b1": []
			}
		}`)
	})
	for _, version := range []string{"1.0.0", "2.0.0"} {
		mux.HandleFunc("/pypi/flask/"+version+"/json", func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			fmt.Fprint(w, `{
				"info": {
					"name": "Flask",
					"requires_dist": [
						"Werkzeug (>=1.0)",
						"click==7.1.2",
						"pytest; extra == 'test'"
					]
				},
				"releases": {}
			}`)
		})
	}

	mux.HandleFunc("/pypi/broken/json", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `{"info": not json`)
	})
	mux.HandleFunc("/pypi/flaky/json", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.NotFound(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPyPIProvider_Candidates(t *testing.T) {
	var requests atomic.Int64
	srv := fakeRegistry(t, &requests)
	provider := NewPyPIProviderWithClient(srv.URL, srv.Client())

	cands, err := provider.Candidates(context.Background(), "flask", constraintOf("root", ""))
	require.NoError(t, err)

	// The non-semver release tag is skipped, the rest come newest first.
	require.Len(t, cands, 2)
	assert.Equal(t, "2.0.0", cands[0].Version.String())
	assert.Equal(t, "1.0.0", cands[1].Version.String())

	children := cands[0].Children
	require.Len(t, children, 2, "marker-guarded requirement must be dropped")
	assert.Equal(t, ChildSpec{Name: "werkzeug", RawName: "Werkzeug", Spec: ">=1.0", Source: "flask"}, children[0])
	assert.Equal(t, ChildSpec{Name: "click", RawName: "click", Spec: "=7.1.2", Source: "flask"}, children[1])
}

func TestPyPIProvider_ConstraintLimitsReleaseFetches(t *testing.T) {
	var requests atomic.Int64
	srv := fakeRegistry(t, &requests)
	provider := NewPyPIProviderWithClient(srv.URL, srv.Client())

	cands, err := provider.Candidates(context.Background(), "flask", constraintOf("root", "<2.0.0"))
	require.NoError(t, err)

	require.Len(t, cands, 1)
	assert.Equal(t, "1.0.0", cands[0].Version.String())

	// One project fetch plus one release fetch: 2.0.0 was filtered before its
	// metadata was requested.
	assert.Equal(t, int64(2), requests.Load())
}

func TestPyPIProvider_CachesResponses(t *testing.T) {
	var requests atomic.Int64
	srv := fakeRegistry(t, &requests)
	provider := NewPyPIProviderWithClient(srv.URL, srv.Client())

	_, err := provider.Candidates(context.Background(), "flask", constraintOf("root", ""))
	require.NoError(t, err)
	first := requests.Load()

	_, err = provider.Candidates(context.Background(), "flask", constraintOf("root", ""))
	require.NoError(t, err)
	assert.Equal(t, first, requests.Load(), "repeat lookup must be served from cache")
}

func TestPyPIProvider_Errors(t *testing.T) {
	var requests atomic.Int64
	srv := fakeRegistry(t, &requests)
	provider := NewPyPIProviderWithClient(srv.URL, srv.Client())

	t.Run("unknown package", func(t *testing.T) {
		_, err := provider.Candidates(context.Background(), "ghost", constraintOf("root", ""))
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("server failure", func(t *testing.T) {
		_, err := provider.Candidates(context.Background(), "flaky", constraintOf("root", ""))
		require.ErrorIs(t, err, ErrNetworkFailure)
	})

	t.Run("unreachable registry", func(t *testing.T) {
		dead := NewPyPIProviderWithClient("http://127.0.0.1:1", &http.Client{})
		_, err := dead.Candidates(context.Background(), "flask", constraintOf("root", ""))
		require.ErrorIs(t, err, ErrNetworkFailure)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := provider.Candidates(context.Background(), "broken", constraintOf("root", ""))
		require.ErrorIs(t, err, ErrMalformedMetadata)
	})
}

func TestPyPIProvider_BaseURLTrimmed(t *testing.T) {
	provider := NewPyPIProvider("https://example.test/")
	assert.Equal(t, "https://example.test", provider.BaseURL())
}
