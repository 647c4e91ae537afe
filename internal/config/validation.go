package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/pijaz/pijaz-go/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value, entityType string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("is required for %s", entityType),
		}
	}
	return nil
}

// ValidateServerURL checks that value is an absolute http(s) URL ending in a slash.
func ValidateServerURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: "must be an absolute http or https URL",
		}
	}
	if !strings.HasSuffix(value, "/") {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: "must end with '/'",
		}
	}
	return nil
}

// Validate checks the client and product sections. The returned error, if
// any, is a ValidationErrors listing every problem found.
func (c PijazConfig) Validate() error {
	var errs ValidationErrors

	if err := ValidateRequired("client.appId", c.Client.AppID, "API access"); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if err := ValidateRequired("client.apiKey", c.Client.APIKey, "API access"); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if err := ValidateServerURL("client.apiServer", c.Client.APIServer); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if err := ValidateServerURL("client.renderServer", c.Client.RenderServer); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if c.Client.RetryCount < 0 {
		errs.Add("client.retryCount", "must not be negative", c.Client.RetryCount)
	}
	if c.Client.RefreshFuzz < 0 {
		errs.Add("client.refreshFuzz", "must not be negative", c.Client.RefreshFuzz)
	}
	if c.Client.RetryDelay < 0 {
		errs.Add("client.retryDelay", "must not be negative", c.Client.RetryDelay)
	}
	if c.Client.Timeout < 0 {
		errs.Add("client.timeout", "must not be negative", c.Client.Timeout)
	}

	if err := ValidateRequired("product.workflow", c.Product.Workflow, "rendering"); err != nil {
		errs = append(errs, err.(ValidationError))
	}

	seen := make(map[string]bool, len(c.Renders))
	for i, r := range c.Renders {
		field := fmt.Sprintf("renders[%d].output", i)
		if err := ValidateRequired(field, r.Output, "a batch render"); err != nil {
			errs = append(errs, err.(ValidationError))
			continue
		}
		if seen[r.Output] {
			errs.Add(field, "duplicates an earlier output path", r.Output)
		}
		seen[r.Output] = true
	}

	if c.Serve.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Serve.Listen); err != nil {
			errs.Add("serve.listen", "must be host:port", c.Serve.Listen)
		}
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs.Add("logLevel", "must be one of: debug, info, warn, error", c.LogLevel)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// FormatValidationError creates a consistent validation error message
func FormatValidationError(entityType, entityName string, err error) error {
	if err == nil {
		return nil
	}

	if entityName != "" {
		return fmt.Errorf("validation failed for %s '%s': %w", entityType, entityName, err)
	}
	return fmt.Errorf("validation failed for %s: %w", entityType, err)
}
