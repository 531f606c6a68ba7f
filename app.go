package routekit

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/routekit/internal/config"
	"github.com/vango-dev/routekit/internal/devserver"
	rkerrors "github.com/vango-dev/routekit/internal/errors"
	"github.com/vango-dev/routekit/pkg/dom/memdom"
	"github.com/vango-dev/routekit/pkg/manifest"
	"github.com/vango-dev/routekit/pkg/middleware"
	"github.com/vango-dev/routekit/pkg/router"
	"github.com/vango-dev/routekit/pkg/transition"
)

// Options configures New. Every field is optional.
type Options struct {
	// Config defaults to config.New().
	Config *config.Config

	// Registry resolves the hook names used in the manifest.
	Registry *manifest.Registry

	// S3 fetches s3:// manifests. Defaults to a client built from the
	// s3 section of the config.
	S3 manifest.ObjectGetter

	// Document receives leave transitions. Defaults to the configured
	// dev.document, or an empty document.
	Document *memdom.Document

	// Logger defaults to one built from the log section of the config.
	Logger *slog.Logger

	// Registry for navigation metrics. Defaults to the prometheus
	// default registry.
	Metrics *prometheus.Registry

	// SkipManifest builds the router without loading the manifest.
	SkipManifest bool

	// StubHooks binds every hook name in the manifest to a no-op when no
	// Registry is given. Used by the CLI.
	StubHooks bool
}

// App wires a router to its configuration, manifest, document and
// observability stack.
//
//	cfg, _ := config.Load(".")
//	app, err := routekit.New(ctx, routekit.Options{Config: cfg, Registry: reg})
//	if err != nil {
//	    return err
//	}
//	app.Router().Run(ctx)
type App struct {
	cfg        *config.Config
	router     *router.Router
	doc        *memdom.Document
	transition *transition.Coordinator
	manifest   *manifest.Manifest
	stubHooks  bool
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
}

// New builds an App. The manifest is loaded unless opts.SkipManifest is
// set or the configured manifest does not exist locally.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = cfg.Logger(os.Stderr)
	}

	app := &App{
		cfg:       cfg,
		stubHooks: opts.StubHooks,
		logger:    logger.With("component", "app"),
	}

	doc, err := loadDocument(cfg, opts.Document)
	if err != nil {
		return nil, err
	}
	app.doc = doc
	if cfg.Transition.Event != "" {
		doc.SetTransitionEvent(cfg.Transition.Event)
	}

	mw := []router.Middleware{middleware.Logging(logger)}
	if cfg.MetricsEnabled() {
		metricOpts := []middleware.MetricsOption{middleware.WithNamespace(cfg.Metrics.Namespace)}
		app.gatherer = prometheus.DefaultGatherer
		if opts.Metrics != nil {
			metricOpts = append(metricOpts, middleware.WithRegistry(opts.Metrics))
			app.gatherer = opts.Metrics
		}
		mw = append(mw, middleware.Prometheus(metricOpts...))
	}
	if cfg.Dev.Tracing {
		mw = append(mw, middleware.OpenTelemetry(middleware.WithTracerName("routekit")))
	}

	routerOpts := []router.Option{
		router.WithLogger(logger),
		router.WithStrict(cfg.Strict),
		router.WithMiddleware(mw...),
	}
	if cfg.Transition.Target != "" {
		app.transition = transition.New(doc, transition.Config{
			Target:  cfg.Transition.Target,
			Class:   cfg.Transition.Class,
			Timeout: cfg.TransitionTimeout(),
		}, transition.WithLogger(logger))
		routerOpts = append(routerOpts, router.WithTransition(app.transition))
	}
	app.router = router.New(routerOpts...)

	if opts.SkipManifest {
		return app, nil
	}
	source := cfg.ManifestPath()
	if !strings.HasPrefix(source, "s3://") {
		if _, err := os.Stat(source); os.IsNotExist(err) {
			app.logger.Warn("manifest not found, starting with an empty route table", "manifest", source)
			return app, nil
		}
	}

	getter := opts.S3
	if getter == nil && strings.HasPrefix(source, "s3://") {
		getter = NewS3Client(cfg.S3)
	}
	if err := app.LoadManifest(ctx, source, opts.Registry, getter); err != nil {
		return nil, err
	}
	return app, nil
}

// LoadManifest loads a manifest and maps its routes.
func (a *App) LoadManifest(ctx context.Context, source string, reg *manifest.Registry, getter manifest.ObjectGetter) error {
	var loadOpts []manifest.LoadOption
	if getter != nil {
		loadOpts = append(loadOpts, manifest.WithS3(getter))
	}
	m, err := manifest.Load(ctx, source, loadOpts...)
	if err != nil {
		return err
	}
	if reg == nil && a.stubHooks {
		reg = manifest.Stub(m)
	}
	defs, err := m.Build(reg)
	if err != nil {
		return err
	}
	a.warnDefinitions(source, defs)
	if err := a.router.Map(defs...); err != nil {
		return err
	}
	a.manifest = m
	a.logger.Info("manifest loaded", "manifest", source, "routes", m.Len())
	return nil
}

// warnDefinitions logs definition problems that mapping would silently
// resolve, such as shadowed or duplicate routes.
func (a *App) warnDefinitions(source string, defs []router.Definition) {
	var multi *router.MultiValidationError
	if !errors.As(router.Validate(defs...), &multi) {
		return
	}
	for _, problem := range multi.Errors {
		a.logger.Warn("route definition problem",
			"manifest", source,
			"type", string(problem.Type),
			"path", problem.Path,
			"message", problem.Message)
	}
}

// Router returns the router.
func (a *App) Router() *router.Router { return a.router }

// Config returns the configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Document returns the in-memory document.
func (a *App) Document() *memdom.Document { return a.doc }

// Transition returns the transition coordinator, or nil when no
// transition target is configured.
func (a *App) Transition() *transition.Coordinator { return a.transition }

// Manifest returns the loaded manifest, or nil.
func (a *App) Manifest() *manifest.Manifest { return a.manifest }

// Server creates the inspector server for the app.
func (a *App) Server() *devserver.Server {
	opts := []devserver.Option{
		devserver.WithDocument(a.doc),
		devserver.WithLogger(a.logger),
	}
	if a.gatherer != nil {
		opts = append(opts, devserver.WithMetrics(a.gatherer))
	}
	return devserver.New(a.router, opts...)
}

func loadDocument(cfg *config.Config, doc *memdom.Document) (*memdom.Document, error) {
	if doc != nil {
		return doc, nil
	}
	path := cfg.DocumentPath()
	if path == "" {
		return memdom.New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rkerrors.New("E005").WithFile(path).WithDetail("dev.document could not be read").Wrap(err)
	}
	return memdom.Parse(string(data))
}

// NewS3Client builds an S3 client from the config. Credentials come from
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.
func NewS3Client(cfg config.S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.UsePathStyle,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return envCredentials()
			},
		)),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func envCredentials() (aws.Credentials, error) {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, rkerrors.New("E023").
			WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are not set")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}, nil
}
