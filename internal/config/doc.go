// Package config provides configuration management for everygarf.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Validation, including the start date range
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// 20 concurrent jobs, 10 attempts per strip, 15s request timeout
//	// proxy and remote URL cache enabled, PNG output
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.json")
//	// Uses defaults if file doesn't exist
//
// Command line flags are applied on top of the loaded settings, after which
// Validate must be called before the settings are handed to the downloader.
package config
