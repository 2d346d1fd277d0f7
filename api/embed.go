// Package api carries the OpenAPI description served at /docs.
package api

import _ "embed"

//go:embed openapi.yaml
var OpenAPISpec []byte
