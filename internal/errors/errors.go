// Package errors provides coded, user-facing errors for the microtastic
// command line tool. Every code carries a short message and, usually, a
// suggestion for fixing the problem, so failures print as guidance rather
// than raw stack noise.
package errors

import "fmt"

// Category groups errors by the tool layer they come from.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryBuild  Category = "build"
	CategoryDev    Category = "dev"
	CategoryDeploy Category = "deploy"
	CategoryCLI    Category = "cli"
)

// ToolError is a structured error with a stable code and a fix suggestion.
type ToolError struct {
	// Code is a unique error identifier (e.g. "E101").
	Code string

	// Category is the tool layer the error belongs to.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, filled per occurrence.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ToolError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *ToolError) WithDetail(d string) *ToolError {
	e.Detail = d
	return e
}

// WithSuggestion replaces the registered fix suggestion.
func (e *ToolError) WithSuggestion(s string) *ToolError {
	e.Suggestion = s
	return e
}

// Wrap attaches an underlying error.
func (e *ToolError) Wrap(err error) *ToolError {
	e.Wrapped = err
	return e
}

// template is a registered error definition.
type template struct {
	Category   Category
	Message    string
	Suggestion string
}

var registry = map[string]template{
	// Config (E100-E119)
	"E100": {
		Category:   CategoryConfig,
		Message:    "No app.json found",
		Suggestion: "Run 'microtastic create <name>' to scaffold a project, or create app.json by hand",
	},
	"E101": {
		Category:   CategoryConfig,
		Message:    "app.json is not valid JSON",
		Suggestion: "Check app.json for trailing commas or unquoted keys",
	},
	"E102": {
		Category:   CategoryConfig,
		Message:    "app.json failed validation",
		Suggestion: "Fix the fields listed in the detail and retry",
	},

	// Build (E120-E139)
	"E120": {
		Category:   CategoryBuild,
		Message:    "esbuild executable not found",
		Suggestion: "Install esbuild (npm install -g esbuild) or set its path in app.json under build.esbuild",
	},
	"E121": {
		Category:   CategoryBuild,
		Message:    "Bundling failed",
		Suggestion: "esbuild output above lists the offending file",
	},
	"E122": {
		Category: CategoryBuild,
		Message:  "Could not write build output",
	},

	// Dev server (E140-E159)
	"E140": {
		Category:   CategoryDev,
		Message:    "Dev server failed to start",
		Suggestion: "Another process may hold the port; change dev.port in app.json or pass --port",
	},
	"E141": {
		Category: CategoryDev,
		Message:  "File watcher failed",
	},

	// Deploy (E160-E179)
	"E160": {
		Category:   CategoryDeploy,
		Message:    "No deploy bucket configured",
		Suggestion: "Set deploy.bucket in app.json or pass --bucket",
	},
	"E161": {
		Category:   CategoryDeploy,
		Message:    "Upload failed",
		Suggestion: "Check AWS credentials and bucket permissions",
	},
	"E162": {
		Category:   CategoryDeploy,
		Message:    "Nothing to deploy",
		Suggestion: "Run 'microtastic build' first",
	},

	// CLI (E180-E199)
	"E180": {
		Category:   CategoryCLI,
		Message:    "Project directory already exists",
		Suggestion: "Pick a different name or remove the existing directory",
	},
}

// New creates a ToolError from a registered error code.
func New(code string) *ToolError {
	t, ok := registry[code]
	if !ok {
		return &ToolError{Code: code, Message: "Unknown error"}
	}
	return &ToolError{
		Code:       code,
		Category:   t.Category,
		Message:    t.Message,
		Suggestion: t.Suggestion,
	}
}

// Newf creates an uncoded ToolError with a formatted message.
func Newf(category Category, format string, args ...any) *ToolError {
	return &ToolError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error under a registered code. An error that
// is already a ToolError passes through unchanged.
func FromError(err error, code string) *ToolError {
	if err == nil {
		return nil
	}
	if te, ok := err.(*ToolError); ok {
		return te
	}
	return New(code).Wrap(err)
}
