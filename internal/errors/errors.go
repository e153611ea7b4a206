// Package errors provides centralized error handling with categorised, context-rich errors
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

// CategorizedError is an interface for errors that can specify their own category
type CategorizedError interface {
	error
	ErrorCategory() ErrorCategory
}

const (
	// Per-record failures. These never abort a batch.
	CategoryConfiguration        ErrorCategory = "configuration"         // malformed zone code, unparseable hub height
	CategoryDataUnavailable      ErrorCategory = "data-unavailable"      // missing image, photo or elevation tile
	CategoryMeasurementAmbiguity ErrorCategory = "measurement-ambiguity" // wrong detection counts

	// Run level failures
	CategoryReferenceData ErrorCategory = "reference-data" // site table, ephemeris or tile index cannot be loaded
	CategoryValidation    ErrorCategory = "validation"     // settings or statistical validation
	CategoryFileIO        ErrorCategory = "file-io"
	CategoryFileParsing   ErrorCategory = "file-parsing"
	CategoryNotFound      ErrorCategory = "not-found"
	CategoryGeneric       ErrorCategory = "generic"
)

// EnhancedError wraps an error with additional context and metadata
type EnhancedError struct {
	Err       error          // Original error
	Component string         // Component where error occurred
	Category  ErrorCategory  // Error category for better grouping
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
	mu        sync.RWMutex
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is implements error type checking
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return Is(ee.Err, target)
}

// ErrorCategory implements CategorizedError
func (ee *EnhancedError) ErrorCategory() ErrorCategory {
	return ee.Category
}

// GetContext returns a copy of the error context
func (ee *EnhancedError) GetContext() map[string]any {
	ee.mu.RLock()
	defer ee.mu.RUnlock()

	if ee.Context == nil {
		return nil
	}

	contextCopy := make(map[string]any, len(ee.Context))
	maps.Copy(contextCopy, ee.Context)
	return contextCopy
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error with enhanced context
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates a new formatted error with enhanced context
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category for better grouping
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds context data to the error
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// FileContext records the path of the file involved in the failure
func (eb *ErrorBuilder) FileContext(path string) *ErrorBuilder {
	if path == "" {
		return eb
	}
	return eb.Context("file", path)
}

// RecordContext identifies the site and turbine a per-record failure belongs to
func (eb *ErrorBuilder) RecordContext(site string, turbine int) *ErrorBuilder {
	eb.Context("site", site)
	if turbine >= 0 {
		eb.Context("turbine", turbine)
	}
	return eb
}

// Build creates the EnhancedError and runs registered hooks
func (eb *ErrorBuilder) Build() *EnhancedError {
	category := eb.category
	if category == "" {
		category = detectCategory(eb.err)
	}
	component := eb.component
	if component == "" {
		component = "unknown"
	}

	ee := &EnhancedError{
		Err:       eb.err,
		Component: component,
		Category:  category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}

	runHooks(ee)
	return ee
}

// detectCategory inherits the category of a wrapped categorised error
func detectCategory(err error) ErrorCategory {
	var catErr CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr.ErrorCategory()
	}
	return CategoryGeneric
}

// ErrorHook is called for every error built through ErrorBuilder
type ErrorHook func(ee *EnhancedError)

type registeredHook struct {
	id   uint64
	hook ErrorHook
}

var (
	hooks      []registeredHook
	nextHookID uint64
	hooksMu    sync.RWMutex
)

// AddErrorHook registers a hook, used by metrics to count errors per category.
// The returned func removes the hook again and is safe to call more than once.
func AddErrorHook(hook ErrorHook) (remove func()) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	nextHookID++
	id := nextHookID
	hooks = append(hooks, registeredHook{id: id, hook: hook})

	return func() {
		hooksMu.Lock()
		defer hooksMu.Unlock()
		hooks = slices.DeleteFunc(hooks, func(h registeredHook) bool { return h.id == id })
	}
}

// ClearErrorHooks removes all registered hooks
func ClearErrorHooks() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = nil
}

func runHooks(ee *EnhancedError) {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	for _, h := range hooks {
		h.hook(ee)
	}
}

// Convenience functions for common error patterns

// ConfigurationError creates a per-record configuration error. A negative
// turbine marks a site-level record.
func ConfigurationError(err error, component, site string, turbine int) *EnhancedError {
	return New(err).
		Component(component).
		Category(CategoryConfiguration).
		RecordContext(site, turbine).
		Build()
}

// FileError creates a file I/O error with appropriate context
func FileError(err error, filePath string) *EnhancedError {
	return New(err).
		Category(CategoryFileIO).
		FileContext(filePath).
		Build()
}

// Standard library passthrough functions
// These allow this package to be a drop-in replacement for the standard errors package

// NewStd creates a new standard error (passthrough to standard library)
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's tree matches target (passthrough to standard library)
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target (passthrough to standard library)
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// IsCategory checks if an error is an EnhancedError with the specified category.
func IsCategory(err error, category ErrorCategory) bool {
	var enhancedErr *EnhancedError
	return As(err, &enhancedErr) && enhancedErr.Category == category
}

// IsNotFound checks if an error is an EnhancedError with CategoryNotFound.
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}
