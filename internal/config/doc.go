// Package config loads and validates pipeline configuration from YAML.
//
// ${VAR} references in the file are expanded from the environment before
// parsing, which keeps credentials (API tokens, database passwords) out of
// the file itself.
package config
