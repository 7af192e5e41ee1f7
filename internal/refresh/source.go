package refresh

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/giantswarm/sdkmatrix/internal/config"
	"github.com/giantswarm/sdkmatrix/internal/releasecache"
	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// ErrRateLimited marks a release fetch the upstream API refused. A refresh
// stops on it rather than writing a version source from partial data.
const ErrRateLimited = sentinel.Error("upstream rate limit exceeded")

// TokenEnv is the environment variable holding the optional GitHub token.
const TokenEnv = "GITHUB_TOKEN"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// Release is one upstream release of an SDK.
type Release struct {
	Tag         string
	PublishedAt *time.Time
	URL         string
}

// ReleaseSource lists the releases of a language's SDK, newest first.
type ReleaseSource interface {
	Releases(ctx context.Context, lang config.Language) ([]Release, error)
}

// RepoURL returns the web address of an upstream repository.
func RepoURL(repo string) string {
	return "https://github.com/" + repo
}

// GitHub reads releases through the GitHub REST API.
type GitHub struct {
	// BaseURL is the repos endpoint, e.g. https://api.github.com/repos.
	BaseURL string
	// Token authenticates requests when set.
	Token string
	// Client defaults to http.DefaultClient.
	Client *http.Client
	// Cache, when set, turns repeat fetches into conditional requests.
	Cache *releasecache.Cache

	now func() time.Time
	log *slog.Logger
}

// NewGitHub returns a GitHub source. cache may be nil.
// If logger is nil, slog.Default() is used.
func NewGitHub(baseURL, token string, cache *releasecache.Cache, logger *slog.Logger) *GitHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHub{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		Cache:   cache,
		now:     time.Now,
		log:     logger,
	}
}

// Releases implements ReleaseSource. Languages with a manifest version source
// yield a single synthetic release built from the repository's Cargo.toml.
func (g *GitHub) Releases(ctx context.Context, lang config.Language) ([]Release, error) {
	switch lang.VersionSource {
	case config.SourceReleases:
		return g.releases(ctx, lang)
	case config.SourceManifest:
		return g.manifestRelease(ctx, lang)
	default:
		return nil, fmt.Errorf("language %s: version source %q: %w", lang.Name, lang.VersionSource, sentinel.ErrConfig)
	}
}

func (g *GitHub) releases(ctx context.Context, lang config.Language) ([]Release, error) {
	body, err := g.get(ctx, g.BaseURL+"/"+lang.Repo+"/releases")
	if err != nil {
		return nil, fmt.Errorf("fetch releases for %s: %w", lang.Name, err)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, fmt.Errorf("fetch releases for %s: response is not a JSON array", lang.Name)
	}

	var out []Release
	for _, r := range doc.Array() {
		tag := r.Get("tag_name").String()
		if tag == "" || r.Get("draft").Bool() {
			continue
		}
		rel := Release{Tag: tag, URL: r.Get("html_url").String()}
		if published := r.Get("published_at").String(); published != "" {
			if t, err := time.Parse(time.RFC3339, published); err == nil {
				rel.PublishedAt = &t
			}
		}
		out = append(out, rel)
	}
	g.log.Debug("fetched releases", "language", lang.Name, "count", len(out))
	return out, nil
}

// manifestRelease reads the version from Cargo.toml through the contents
// API. Any failure other than a rate limit falls back to
// DefaultCargoVersion.
func (g *GitHub) manifestRelease(ctx context.Context, lang config.Language) ([]Release, error) {
	version, err := g.cargoVersion(ctx, lang.Repo)
	if errors.Is(err, ErrRateLimited) || ctx.Err() != nil {
		return nil, fmt.Errorf("fetch manifest for %s: %w", lang.Name, errors.Join(err, ctx.Err()))
	}
	if err != nil {
		g.log.Warn("manifest version unavailable, using default",
			"language", lang.Name, "default", DefaultCargoVersion, "error", err)
		version = DefaultCargoVersion
	}
	now := g.now().UTC().Truncate(time.Second)
	return []Release{{Tag: "v" + version, PublishedAt: &now, URL: RepoURL(lang.Repo)}}, nil
}

func (g *GitHub) cargoVersion(ctx context.Context, repo string) (string, error) {
	body, err := g.get(ctx, g.BaseURL+"/"+repo+"/contents/Cargo.toml")
	if err != nil {
		return "", err
	}
	content := gjson.GetBytes(body, "content")
	if !content.Exists() {
		return "", errors.New("contents response has no content field")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.String(), "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode Cargo.toml: %w", err)
	}
	version, ok := cargoVersion(string(raw))
	if !ok {
		return "", errors.New("no version field in Cargo.toml")
	}
	return version, nil
}

func (g *GitHub) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return http.DefaultClient
}

// get fetches url, answering 304 Not Modified from the cache.
func (g *GitHub) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	var cached releasecache.Entry
	hit := false
	if g.Cache != nil {
		cached, hit, err = g.Cache.Get(ctx, url)
		if err != nil {
			g.log.Warn("release cache read failed", "url", url, "error", err)
			hit = false
		}
		if hit && cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
	}

	resp, err := g.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	switch {
	case resp.StatusCode == http.StatusNotModified && hit:
		g.log.Debug("release list unchanged", "url", url)
		return cached.Body, nil
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("GET %s: %s: %w", url, resp.Status, ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("GET %s: unexpected status %s: %s", url, resp.Status, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", url, err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("GET %s: response exceeds %d bytes", url, maxResponseBytes)
	}
	if etag := resp.Header.Get("ETag"); etag != "" && g.Cache != nil {
		if err := g.Cache.Put(ctx, releasecache.Entry{URL: url, ETag: etag, Body: body}); err != nil {
			g.log.Warn("release cache write failed", "url", url, "error", err)
		}
	}
	return body, nil
}
