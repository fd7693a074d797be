package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"salescli/internal/dataprocessing"
	apperrors "salescli/internal/errors"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "SALES"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// AnalysisConfig holds the cleaning and charting parameters.
type AnalysisConfig struct {
	AgeBoundaries []float64 `yaml:"age_boundaries" envconfig:"AGE_BOUNDARIES" validate:"min=2"`
	AgeLabels     []string  `yaml:"age_labels" envconfig:"AGE_LABELS" validate:"min=1,dive,required"`
	HistogramBins int       `yaml:"histogram_bins" envconfig:"HISTOGRAM_BINS" validate:"min=1"`
}

// OutputConfig names the artifacts written under the output directory.
type OutputConfig struct {
	Dir           string `yaml:"dir" envconfig:"DIR" validate:"required"`
	SnapshotName  string `yaml:"snapshot_name" envconfig:"SNAPSHOT_NAME" validate:"required"`
	StatisticsCSV string `yaml:"statistics_csv" envconfig:"STATISTICS_CSV" validate:"required"`
	BOMPrefix     bool   `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	Metrics       bool   `yaml:"metrics" envconfig:"METRICS"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE" validate:"required_if=Metrics true"`
}

// AgeBinning returns the configured age bins in the form the preprocessor consumes.
func (a AnalysisConfig) AgeBinning() dataprocessing.AgeBinning {
	return dataprocessing.AgeBinning{
		Boundaries: append([]float64(nil), a.AgeBoundaries...),
		Labels:     append([]string(nil), a.AgeLabels...),
	}
}

// Default returns default configuration
func Default() *Config {
	binning := dataprocessing.DefaultAgeBinning()
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/salescli.log",
		},
		Analysis: AnalysisConfig{
			AgeBoundaries: binning.Boundaries,
			AgeLabels:     binning.Labels,
			HistogramBins: dataprocessing.DefaultHistogramBins,
		},
		Output: OutputConfig{
			Dir:           "outputs",
			SnapshotName:  "sales_data.arrow",
			StatisticsCSV: "summary_statistics.csv",
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			MetricsFile:   "metrics.prom",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and the environment, in increasing order of precedence.
// An empty path falls back to SALES_CONFIG and then to the usual locations.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, apperrors.NewConfigError("failed to load .env", err)
		}
	}

	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document at filePath onto cfg.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if env := os.Getenv(EnvPrefix + "_CONFIG"); env != "" {
		return env
	}

	locations := []string{
		"salescli.yaml",
		"configs/salescli.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Validate checks field constraints and the age binning invariant.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterStructValidation(validateAnalysis, AnalysisConfig{})

	if err := v.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if ok := asValidationErrors(err, &fieldErrs); !ok {
			return apperrors.NewConfigError("config validation failed", err)
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, formatFieldError(fe))
		}
		return apperrors.NewConfigError("config validation failed", fmt.Errorf("%s", strings.Join(msgs, "; ")))
	}
	return nil
}

// validateAnalysis enforces the age binning invariant at struct level.
func validateAnalysis(sl validator.StructLevel) {
	a := sl.Current().Interface().(AnalysisConfig)
	if err := a.AgeBinning().Validate(); err != nil {
		sl.ReportError(a.AgeBoundaries, "AgeBoundaries", "age_boundaries", "agebinning", err.Error())
	}
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = fieldErrs
	}
	return ok
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "agebinning":
		return fmt.Sprintf("%s: %s", fe.Namespace(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Namespace(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag())
	}
}
