// Package apischema validates incoming requests against the published
// OpenAPI document before they reach a controller.
package apischema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/mxi-labs/presale/internal/pkg/apierror"
	"github.com/mxi-labs/presale/internal/pkg/payment"
)

// Validator holds a loaded and validated OpenAPI document.
type Validator struct {
	doc     *openapi3.T
	options *openapi3filter.Options
}

// Load reads the document at path.
func Load(path string) (*Validator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return newValidator(loader, doc)
}

// LoadData parses an in-memory document.
func LoadData(data []byte) (*Validator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	return newValidator(loader, doc)
}

func newValidator(loader *openapi3.Loader, doc *openapi3.T) (*Validator, error) {
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return &Validator{
		doc: doc,
		options: &openapi3filter.Options{
			// Bearer credentials are checked by the auth middleware.
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}, nil
}

// Operation returns a handler validating requests against the operation
// documented at method and path. path is relative to the document's server
// URL, so the same operation can guard every mount point of a route.
func (v *Validator) Operation(method, path string) (fiber.Handler, error) {
	item := v.doc.Paths.Value(path)
	if item == nil {
		return nil, fmt.Errorf("openapi document has no path %s", path)
	}
	op := item.GetOperation(strings.ToUpper(method))
	if op == nil {
		return nil, fmt.Errorf("openapi document has no %s %s", method, path)
	}
	route := &routers.Route{
		Spec:      v.doc,
		Path:      path,
		PathItem:  item,
		Method:    strings.ToUpper(method),
		Operation: op,
	}

	return func(c *fiber.Ctx) error {
		req, err := adaptor.ConvertRequest(c, false)
		if err != nil {
			return apierror.Send(c, payment.CodeInvalidInput, "Malformed request")
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: c.AllParams(),
			Route:      route,
			Options:    v.options,
		}
		if err := openapi3filter.ValidateRequest(context.Background(), input); err != nil {
			log.Debugf("[APISchema] %s %s rejected: %v", method, path, err)
			return apierror.Send(c, payment.CodeInvalidInput, Message(err))
		}
		return c.Next()
	}, nil
}

// Message turns a validation error into a short caller-facing message
// naming the offending field.
func Message(err error) string {
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		reason := schemaErr.Reason
		if field := strings.Join(schemaErr.JSONPointer(), "."); field != "" {
			return field + ": " + reason
		}
		return reason
	}
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.RequestBody != nil && errors.Is(reqErr.Err, openapi3filter.ErrInvalidRequired) {
			return "Request body is required"
		}
		if reqErr.Reason != "" {
			return reqErr.Reason
		}
	}
	return "Request does not match the API schema"
}
