// Package config loads the delaywatch configuration from a YAML file and
// environment variable overrides, validating it before use.
package config
