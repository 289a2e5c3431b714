package dephell

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/griels/dephell/converters"
	"github.com/griels/dephell/graph"
)

// DefaultRegistry is the public PyPI JSON API endpoint.
const DefaultRegistry = "https://pypi.org"

// maxCandidateLookups caps how many satisfying releases get their child
// requirements fetched per query. Each release costs one metadata request;
// the resolver only ever needs the top few, and backtracking re-queries.
const maxCandidateLookups = 10

// PyPIProvider is a VersionProvider backed by a PyPI-compatible JSON API,
// with response caching and connection pooling.
type PyPIProvider struct {
	baseURL string
	client  *http.Client
	cache   sync.Map
}

// NewPyPIProvider creates a provider for the given registry base URL
// (DefaultRegistry for the public index) with tuned HTTP settings.
func NewPyPIProvider(baseURL string) *PyPIProvider {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &PyPIProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
		},
	}
}

// NewPyPIProviderWithClient creates a provider using a caller-supplied HTTP
// client (custom timeouts, test transports).
func NewPyPIProviderWithClient(baseURL string, client *http.Client) *PyPIProvider {
	return &PyPIProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// BaseURL returns the registry base URL.
func (p *PyPIProvider) BaseURL() string {
	return p.baseURL
}

// projectPayload is the subset of the PyPI JSON API response we read.
type projectPayload struct {
	Info struct {
		Name         string   `json:"name"`
		RequiresDist []string `json:"requires_dist"`
	} `json:"info"`
	Releases map[string][]struct{} `json:"releases"`
}

// Candidates lists the releases of name satisfying the merged constraint,
// newest first, each with the child requirements its metadata declares.
// Releases with unparsable version strings are skipped as malformed.
func (p *PyPIProvider) Candidates(ctx context.Context, name string, constraint *graph.Constraint) ([]Candidate, error) {
	project, err := p.fetchProject(ctx, name, "")
	if err != nil {
		return nil, err
	}

	rng, err := constraint.Range()
	if err != nil {
		return nil, err
	}

	var versions []*semver.Version
	for release := range project.Releases {
		v, err := semver.NewVersion(release)
		if err != nil {
			// Not every index version is semver-shaped; skip quietly.
			continue
		}
		if rng.Check(v) {
			versions = append(versions, v)
		}
	}
	sort.Sort(sort.Reverse(semver.Collection(versions)))
	if len(versions) > maxCandidateLookups {
		versions = versions[:maxCandidateLookups]
	}

	out := make([]Candidate, 0, len(versions))
	for _, v := range versions {
		release, err := p.fetchProject(ctx, name, v.Original())
		if err != nil {
			// A single vanished or broken release is malformed metadata,
			// fatal for that candidate only.
			continue
		}
		out = append(out, Candidate{
			Version:  v,
			Children: childSpecs(name, release.Info.RequiresDist),
		})
	}
	return out, nil
}

// fetchProject retrieves project metadata, or release metadata when version
// is non-empty. Responses are cached for the provider's lifetime.
func (p *PyPIProvider) fetchProject(ctx context.Context, name, version string) (*projectPayload, error) {
	cacheKey := name + "@" + version
	if cached, ok := p.cache.Load(cacheKey); ok {
		return cached.(*projectPayload), nil
	}

	url := fmt.Sprintf("%s/pypi/%s/json", p.baseURL, name)
	if version != "" {
		url = fmt.Sprintf("%s/pypi/%s/%s/json", p.baseURL, name, version)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s@%s", ErrNotFound, name, version)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: registry returned status %d for %s", ErrNetworkFailure, resp.StatusCode, name)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}

	var payload projectPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}

	p.cache.Store(cacheKey, &payload)
	return &payload, nil
}

// childSpecs converts requires_dist entries into child requirements.
// Entries guarded by an environment marker (extras, platform conditions)
// are dropped; unparsable entries are skipped as malformed.
func childSpecs(parent string, requiresDist []string) []ChildSpec {
	var out []ChildSpec
	for _, entry := range requiresDist {
		if i := strings.Index(entry, ";"); i >= 0 {
			if strings.TrimSpace(entry[i+1:]) != "" {
				continue
			}
			entry = entry[:i]
		}
		req, err := converters.ParseRequirement(entry)
		if err != nil || req.Link != nil {
			continue
		}
		out = append(out, ChildSpec{
			Name:    req.Name,
			RawName: req.RawName,
			Spec:    req.Spec,
			Source:  parent,
		})
	}
	return out
}
