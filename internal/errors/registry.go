package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Runtime Errors (E001-E099)
	// ============================================

	"E001": {
		Category: CategoryRuntime,
		Message:  "Invalid cart item",
		Detail:   "A cart item needs a non-empty productId and a non-negative price.",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Invalid navigation URL",
		Detail:   "The path passed to Navigate could not be parsed as a URL reference.",
	},
	"E003": {
		Category: CategoryRuntime,
		Message:  "Invalid selector",
		Detail:   "The CSS selector could not be compiled. Delegated handlers registered with it never fire.",
	},
	"E004": {
		Category: CategoryRuntime,
		Message:  "Element not found",
		Detail:   "No element in the document matched the selector.",
	},
	"E005": {
		Category: CategoryRuntime,
		Message:  "Markup could not be parsed",
		Detail:   "The rendered markup could not be parsed into the root container.",
	},
	"E006": {
		Category: CategoryRuntime,
		Message:  "Event loop closed",
		Detail:   "The callback was not run because the event loop has stopped.",
	},
	"E007": {
		Category: CategoryRuntime,
		Message:  "Invalid live frame",
		Detail:   "A live client sent a frame that is not a JSON object with a known type.",
	},

	// ============================================
	// Config Errors (E100-E199)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Unknown storage backend",
		Detail:   `storage.backend must be one of "memory", "file" or "s3".`,
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Missing S3 bucket",
		Detail:   "The s3 storage backend needs storage.s3.bucket.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid server port",
		Detail:   "server.port must be between 1 and 65535.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid toast duration",
		Detail:   "toast.duration must be a positive duration such as \"3s\".",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Missing storage path",
		Detail:   "The file storage backend needs storage.path.",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Config file could not be read",
		Detail:   "storefront.json exists but is not valid.",
	},

	// ============================================
	// Storage Errors (E200-E299)
	// ============================================

	"E200": {
		Category: CategoryStorage,
		Message:  "Cart record unreadable",
		Detail:   "The stored cart record is not a JSON array of cart items. The cart starts empty.",
	},
	"E201": {
		Category: CategoryStorage,
		Message:  "Storage write failed",
		Detail:   "The durable cart record could not be written. The in-memory cart is unaffected.",
	},
	"E202": {
		Category: CategoryStorage,
		Message:  "Storage read failed",
		Detail:   "The durable cart record could not be read.",
	},

	// ============================================
	// Catalog Errors (E300-E399)
	// ============================================

	"E300": {
		Category: CategoryCatalog,
		Message:  "Product not found",
		Detail:   "No product with this id exists in the catalog.",
	},
	"E301": {
		Category: CategoryCatalog,
		Message:  "Invalid catalog file",
		Detail:   "The catalog file must be a JSON array of products.",
	},

	// ============================================
	// CLI Errors (E400-E499)
	// ============================================

	"E400": {
		Category: CategoryCLI,
		Message:  "Render timed out",
		Detail:   "Outstanding data loads did not finish before the deadline.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
