package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryConfig,
		Message:  "Invalid route pattern",
		Detail:   "The route path could not be compiled into a pattern.",
		DocURL:   "https://routekit.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryConfig,
		Message:  "Duplicate route path",
		Detail:   "A route with the same absolute path is already registered.",
		DocURL:   "https://routekit.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryConfig,
		Message:  "Duplicate route name",
		Detail:   "A route with the same name is already registered.",
		DocURL:   "https://routekit.dev/docs/errors/E003",
	},
	"E004": {
		Category: CategoryConfig,
		Message:  "Unknown filter",
		Detail:   "The route references a filter that has not been registered.",
		DocURL:   "https://routekit.dev/docs/errors/E004",
	},
	"E005": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed.",
		DocURL:   "https://routekit.dev/docs/errors/E005",
	},
	"E006": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
		Detail:   "No routekit.json or routekit.toml was found.",
		DocURL:   "https://routekit.dev/docs/errors/E006",
	},
	"E007": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		DocURL:   "https://routekit.dev/docs/errors/E007",
	},

	// ============================================
	// Manifest Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryManifest,
		Message:  "Manifest parse failed",
		Detail:   "The route manifest is not valid JSON or TOML.",
		DocURL:   "https://routekit.dev/docs/errors/E020",
	},
	"E021": {
		Category: CategoryManifest,
		Message:  "Unknown handler reference",
		Detail:   "The manifest names a hook that is not in the handler registry.",
		DocURL:   "https://routekit.dev/docs/errors/E021",
	},
	"E022": {
		Category: CategoryManifest,
		Message:  "Unsupported manifest format",
		Detail:   "Manifests must use the .json or .toml extension.",
		DocURL:   "https://routekit.dev/docs/errors/E022",
	},
	"E023": {
		Category: CategoryManifest,
		Message:  "Manifest fetch failed",
		Detail:   "The manifest could not be read from its source.",
		DocURL:   "https://routekit.dev/docs/errors/E023",
	},

	// ============================================
	// Navigation Errors (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryNavigation,
		Message:  "Route hook failed",
		Detail:   "A lifecycle hook returned an error.",
		DocURL:   "https://routekit.dev/docs/errors/E040",
	},
	"E041": {
		Category: CategoryNavigation,
		Message:  "Route hook panicked",
		Detail:   "A lifecycle hook panicked during navigation.",
		DocURL:   "https://routekit.dev/docs/errors/E041",
	},
	"E042": {
		Category: CategoryNavigation,
		Message:  "Invalid navigation target",
		Detail:   "The navigation target could not be parsed.",
		DocURL:   "https://routekit.dev/docs/errors/E042",
	},
	"E043": {
		Category: CategoryNavigation,
		Message:  "Navigation cancelled",
		Detail:   "The navigation context was cancelled while waiting on a hook.",
		DocURL:   "https://routekit.dev/docs/errors/E043",
	},

	// ============================================
	// Transition Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryTransition,
		Message:  "Leave transition failed",
		Detail:   "The leave callback reported an error.",
		DocURL:   "https://routekit.dev/docs/errors/E060",
	},

	// ============================================
	// CLI Errors (E080-E099)
	// ============================================

	"E080": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		DocURL:   "https://routekit.dev/docs/errors/E080",
	},
	"E081": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The inspector server stopped unexpectedly.",
		DocURL:   "https://routekit.dev/docs/errors/E081",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
