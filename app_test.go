package routekit

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/routekit/internal/config"
	rkerrors "github.com/vango-dev/routekit/internal/errors"
	"github.com/vango-dev/routekit/pkg/dom/memdom"
	"github.com/vango-dev/routekit/pkg/manifest"
	"github.com/vango-dev/routekit/pkg/router"
)

const routesTOML = `
[[routes]]
path = "/"
name = "home"

[[routes]]
path = "/docs/:page"
name = "doc"
init = "load"
`

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeProject(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "routes.toml"), []byte(routesTOML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(`<main class="page"></main>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(`{
  "manifest": "routes.toml",
  "transition": {"target": ".page", "timeout": "20ms"},
  "dev": {"document": "index.html"}
}`), 0o644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	return cfg
}

func TestNewLoadsManifest(t *testing.T) {
	cfg := writeProject(t)

	var loaded []string
	reg := manifest.NewRegistry().Hook("load", func(to, from *router.Route) error {
		loaded = append(loaded, to.Params["page"])
		return nil
	})

	app, err := New(context.Background(), Options{
		Config:   cfg,
		Registry: reg,
		Logger:   quiet(),
		Metrics:  prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	require.NotNil(t, app.Manifest())
	assert.Equal(t, []string{"/", "/docs/:page"}, app.Router().RouteList())
	require.NotNil(t, app.Transition())

	page, err := app.Document().QuerySelector(".page")
	require.NoError(t, err)
	require.NotNil(t, page)

	ctx := context.Background()
	_, err = app.Router().Run(ctx)
	require.NoError(t, err)

	// No transition events arrive, so the leave resolves on its timeout.
	res, err := app.Router().Navigate(ctx, "/docs/intro")
	require.NoError(t, err)
	assert.Equal(t, router.StatusCompleted, res.Status)
	assert.Equal(t, []string{"intro"}, loaded)
	assert.NotNil(t, app.Server().Handler())
}

func TestNewUnknownHook(t *testing.T) {
	cfg := writeProject(t)
	_, err := New(context.Background(), Options{Config: cfg, Logger: quiet(), Metrics: prometheus.NewRegistry()})
	require.Error(t, err)
	assert.Equal(t, "E021", rkerrors.Code(err))
}

func TestNewWithoutManifest(t *testing.T) {
	cfg := config.New()
	cfg.Manifest = filepath.Join(t.TempDir(), "missing.json")
	disabled := false
	cfg.Metrics.Enabled = &disabled

	app, err := New(context.Background(), Options{Config: cfg, Logger: quiet()})
	require.NoError(t, err)
	assert.Nil(t, app.Manifest())
	assert.Nil(t, app.Transition())
	assert.Empty(t, app.Router().RouteList())
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.Log.Level = "chatty"
	_, err := New(context.Background(), Options{Config: cfg, SkipManifest: true})
	assert.Equal(t, "E007", rkerrors.Code(err))
}

type memS3 map[string]string

func (m memS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(m[*in.Key]))}, nil
}

func TestNewFromS3(t *testing.T) {
	cfg := config.New()
	cfg.Manifest = "s3://site/routes.toml"

	app, err := New(context.Background(), Options{
		Config:   cfg,
		Logger:   quiet(),
		Metrics:  prometheus.NewRegistry(),
		Document: memdom.New(),
		S3:       memS3{"routes.toml": routesTOML},
		Registry: manifest.NewRegistry().Hook("load", func(to, from *router.Route) error { return nil }),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, app.Manifest().Len())
	assert.NotNil(t, app.Router().Route("doc"))
}

func TestNewS3Client(t *testing.T) {
	client := NewS3Client(config.S3Config{Region: "eu-west-1", Endpoint: "http://localhost:9000", UsePathStyle: true})
	require.NotNil(t, client)
	assert.Equal(t, "eu-west-1", client.Options().Region)
	assert.True(t, client.Options().UsePathStyle)
}

func TestNewStubHooks(t *testing.T) {
	cfg := writeProject(t)
	app, err := New(context.Background(), Options{
		Config:    cfg,
		Logger:    quiet(),
		Metrics:   prometheus.NewRegistry(),
		StubHooks: true,
	})
	require.NoError(t, err)
	assert.Len(t, app.Router().RouteList(), 2)
}

func TestLoadManifestWarnsAboutShadowedRoutes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"routes":[
  {"path":"/posts/:id","name":"post"},
  {"path":"/posts/:slug"}
]}`), 0o644))

	var logs strings.Builder
	app, err := New(context.Background(), Options{
		Logger:       slog.New(slog.NewTextHandler(&logs, nil)),
		Metrics:      prometheus.NewRegistry(),
		SkipManifest: true,
	})
	require.NoError(t, err)
	require.NoError(t, app.LoadManifest(context.Background(), path, nil, nil))

	assert.Equal(t, []string{"/posts/:id", "/posts/:slug"}, app.Router().RouteList())
	assert.Contains(t, logs.String(), "route definition problem")
	assert.Contains(t, logs.String(), "type=AMBIGUOUS_ROUTE")
	assert.Contains(t, logs.String(), "path=/posts/:slug")
}
