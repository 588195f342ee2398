// Package config provides centralized configuration management for the
// SuiviStock service. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration values
// throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration files (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SUIVISTOCK_* for namespacing:
//
//	SUIVISTOCK_SERVER_PORT=8080
//	SUIVISTOCK_LOGGING_LEVEL=info
//	SUIVISTOCK_UPLOAD_MAX_FILE_SIZE=20971520
//	SUIVISTOCK_TREATMENT_INSERT_BATCH_SIZE=500
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, _ := config.GetPaths()
//	uploadPath := paths.GetUploadPath("export.xlsx")
//	outputPath := paths.GetOutputWorkbookPath("15/01/2024", runID)
//
// # Validation
//
// All configuration is validated at load time to ensure:
//
//	- Required fields are present
//	- Values are within acceptable ranges
//	- Directories exist or can be created
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
