// Package config provides configuration loading and validation for salescli.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority), including a .env file in the
//	   working directory
//	2. A YAML file: the --config flag, SALES_CONFIG, ./salescli.yaml or
//	   ./configs/salescli.yaml
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SALES_<SECTION>_<FIELD>:
//
//	SALES_LOGGING_LEVEL=debug
//	SALES_OUTPUT_DIR=reports
//	SALES_ANALYSIS_AGE_BOUNDARIES=0,30,60,120
//	SALES_ANALYSIS_AGE_LABELS=young,middle,senior
//	SALES_TELEMETRY_METRICS=true
//
// # Validation
//
// Load validates the result with go-playground/validator. The age binning is
// checked at struct level: boundaries must strictly increase and there must be
// exactly one label per bin.
package config
