// Package openapi embeds the inventory API description for runtime
// distribution alongside the server binary.
package openapi

import _ "embed"

// apiSpec contains the OpenAPI document covering the inventory and reports
// endpoints.
//
//go:embed rollcore.yaml
var apiSpec []byte

// Spec returns a defensive copy of the embedded OpenAPI YAML.
func Spec() []byte {
	return append([]byte(nil), apiSpec...)
}
