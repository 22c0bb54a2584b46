// Package openapi embeds the service's OpenAPI document for the docs page.
package openapi

import _ "embed"

//go:embed openapi.yaml
var YAML []byte
