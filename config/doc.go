// Package config loads the service configuration. Values are resolved
// in three layers: built-in defaults, then an optional YAML file, then
// environment variable overrides (MAS_SECTION_FIELD). Load validates
// the result before handing it out.
package config
