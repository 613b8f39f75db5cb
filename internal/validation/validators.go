package validation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ezyshopper/storefront/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("deployment_mode", validateDeploymentMode); err != nil {
		panic(fmt.Sprintf("failed to register deployment_mode validator: %v", err))
	}
	if err := Validate.RegisterValidation("origin", validateOrigin); err != nil {
		panic(fmt.Sprintf("failed to register origin validator: %v", err))
	}
	if err := Validate.RegisterValidation("rate", validateRate); err != nil {
		panic(fmt.Sprintf("failed to register rate validator: %v", err))
	}
}

// validateDeploymentMode validates that a string is a known DeploymentMode
func validateDeploymentMode(fl validator.FieldLevel) bool {
	return models.DeploymentMode(fl.Field().String()).IsValid()
}

// validateOrigin accepts scheme://host[:port] with no path, query or fragment
func validateOrigin(fl validator.FieldLevel) bool {
	return ValidateOrigin(fl.Field().String()) == nil
}

// validateRate accepts ulule/limiter formatted rates such as "5-S" or "1000-H"
func validateRate(fl validator.FieldLevel) bool {
	return ValidateRate(fl.Field().String()) == nil
}

// ValidateRate checks a rate limit string such as "5-S", "100-M" or "1000-H".
func ValidateRate(rate string) error {
	if _, err := limiter.NewRateFromFormatted(rate); err != nil {
		return fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	return nil
}

// ValidateOrigin checks a single CORS origin string.
func ValidateOrigin(origin string) error {
	if origin == "*" {
		return errors.New("wildcard origin cannot be combined with credentials")
	}
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin %q: %w", origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid origin %q: scheme must be http or https", origin)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid origin %q: missing host", origin)
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid origin %q: must not contain a path, query or fragment", origin)
	}
	return nil
}

// Struct validates v and flattens validator errors into one readable error.
func Struct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
