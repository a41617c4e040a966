// Package configs provides the embedded configuration template for
// TickerFind. The template is embedded at build time so 'tickerfind init'
// can generate a .tickerfind.yaml regardless of how the binary was
// installed.
package configs

import _ "embed"

// ConfigTemplate is the annotated template written by 'tickerfind init'
// as .tickerfind.yaml. Values mirror the defaults in internal/config.
//
//go:embed config.example.yaml
var ConfigTemplate string
