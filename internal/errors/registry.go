package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://observable.vango.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No observable.json was found in the current directory or any parent directory.",
		DocURL:   docBase + "E100",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "observable.json could not be parsed as JSON.",
		DocURL:   docBase + "E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid devtools port",
		Detail:   "devtools.port must be between 1 and 65535.",
		DocURL:   docBase + "E102",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid enforcement policy",
		Detail:   "reactivity.enforceActions must be one of never, observed, or always.",
		DocURL:   docBase + "E103",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "log.level must be one of debug, info, warn, or error.",
		DocURL:   docBase + "E104",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Invalid snapshot backend",
		Detail:   "snapshot.backend must be memory or s3.",
		DocURL:   docBase + "E105",
	},
	"E106": {
		Category: CategoryConfig,
		Message:  "Missing S3 bucket",
		Detail:   "snapshot.bucket is required when snapshot.backend is s3.",
		DocURL:   docBase + "E106",
	},
	"E107": {
		Category: CategoryConfig,
		Message:  "Config write failed",
		Detail:   "observable.json could not be written.",
		DocURL:   docBase + "E107",
	},
	"E108": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "An OBSERVABLE_* environment variable could not be parsed.",
		DocURL:   docBase + "E108",
	},

	// ============================================
	// Runtime Errors (E200-E219)
	// ============================================

	"E200": {
		Category: CategoryRuntime,
		Message:  "State modification not allowed",
		Detail:   "A cell was written outside an action while action enforcement is active.",
		DocURL:   docBase + "E200",
	},
	"E201": {
		Category: CategoryRuntime,
		Message:  "Cell not found",
		Detail:   "No cell with this name is registered in the store.",
		DocURL:   docBase + "E201",
	},
	"E202": {
		Category: CategoryRuntime,
		Message:  "Cell type mismatch",
		Detail:   "The value does not match the type the cell was defined with.",
		DocURL:   docBase + "E202",
	},

	// ============================================
	// Snapshot Errors (E300-E319)
	// ============================================

	"E300": {
		Category: CategorySnapshot,
		Message:  "Snapshot not found",
		Detail:   "The snapshot backend has no document under this key.",
		DocURL:   docBase + "E300",
	},
	"E301": {
		Category: CategorySnapshot,
		Message:  "Unsupported snapshot version",
		Detail:   "The snapshot was written by an incompatible version of observable.",
		DocURL:   docBase + "E301",
	},
	"E302": {
		Category: CategorySnapshot,
		Message:  "Snapshot backend unavailable",
		Detail:   "The snapshot backend could not be reached.",
		DocURL:   docBase + "E302",
	},

	// ============================================
	// Devtools Errors (E400-E419)
	// ============================================

	"E400": {
		Category: CategoryDevtools,
		Message:  "Port already in use",
		Detail:   "Another process is listening on the devtools port.",
		DocURL:   docBase + "E400",
	},
	"E401": {
		Category: CategoryDevtools,
		Message:  "Devtools server failed",
		Detail:   "The devtools HTTP server stopped unexpectedly.",
		DocURL:   docBase + "E401",
	},

	// ============================================
	// CLI Errors (E500-E519)
	// ============================================

	"E500": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "The command was called with missing or invalid arguments.",
		DocURL:   docBase + "E500",
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
