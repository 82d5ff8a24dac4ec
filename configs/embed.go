// Package configs provides the embedded configuration template for
// codescope.
//
// The template is embedded at build time with //go:embed so it is
// available in every distribution, source builds and binary releases
// alike. 'codescope init' writes it to the project root as
// .codescope.yaml.
//
// Configuration precedence (see internal/config.Load):
//  1. Built-in defaults
//  2. Project config (.codescope.yaml)
//  3. Environment variables (CODESCOPE_*)
package configs

import _ "embed"

// ProjectConfigTemplate is the commented .codescope.yaml starting point
// written by 'codescope init'.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
