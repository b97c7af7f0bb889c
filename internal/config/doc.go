// Package config defines configuration structures for the snbfetch CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (SNBFETCH_ prefix)
//   - YAML configuration file
//
// Merge precedence is flags over environment over file over defaults.
package config
