package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Settings holds the application configuration for the CLI and server.
type Settings struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Tables     TablesConfig     `yaml:"tables" mapstructure:"tables"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Entity     EntityConfig     `yaml:"entity" mapstructure:"entity"`
	Projection ProjectionConfig `yaml:"projection" mapstructure:"projection"`
	Recommend  RecommendConfig  `yaml:"recommend" mapstructure:"recommend"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TablesConfig locates tax table overrides.
type TablesConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	DefaultYear int    `yaml:"default_year" mapstructure:"default_year"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RatePerSecond  float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst          int      `yaml:"burst" mapstructure:"burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	TimeoutSecs    int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// BatchConfig configures batch computation.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// EntityConfig configures the entity optimizer's policy.
type EntityConfig struct {
	HighRiskRatio         float64 `yaml:"high_risk_ratio" mapstructure:"high_risk_ratio"`
	LowRiskRatio          float64 `yaml:"low_risk_ratio" mapstructure:"low_risk_ratio"`
	SalaryFloorRatio      float64 `yaml:"salary_floor_ratio" mapstructure:"salary_floor_ratio"`
	PayrollProcessingCost float64 `yaml:"payroll_processing_cost" mapstructure:"payroll_processing_cost"`
	ExtraFilingCost       float64 `yaml:"extra_filing_cost" mapstructure:"extra_filing_cost"`
	LowIncomeThreshold    float64 `yaml:"low_income_threshold" mapstructure:"low_income_threshold"`
	BenchmarkFile         string  `yaml:"benchmark_file" mapstructure:"benchmark_file"`
}

// ProjectionConfig holds default projection assumptions.
type ProjectionConfig struct {
	Inflation        float64 `yaml:"inflation" mapstructure:"inflation"`
	IncomeGrowth     float64 `yaml:"income_growth" mapstructure:"income_growth"`
	ReturnRate       float64 `yaml:"return_rate" mapstructure:"return_rate"`
	ContributionRate float64 `yaml:"contribution_rate" mapstructure:"contribution_rate"`
}

// RecommendConfig sets the savings bands for recommendation priority.
type RecommendConfig struct {
	HighPrioritySavings   float64 `yaml:"high_priority_savings" mapstructure:"high_priority_savings"`
	MediumPrioritySavings float64 `yaml:"medium_priority_savings" mapstructure:"medium_priority_savings"`
}

// LoadSettings reads settings from an optional file and the environment.
// An empty configFile searches for taxadvisor.yaml in the working directory.
func LoadSettings(configFile string) (*Settings, error) {
	v := viper.New()

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("taxadvisor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("TAXADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("tables.dir", "")
	v.SetDefault("tables.default_year", 2025)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 20)
	v.SetDefault("server.burst", 40)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.timeout_secs", 30)
	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("entity.high_risk_ratio", 0.30)
	v.SetDefault("entity.low_risk_ratio", 0.50)
	v.SetDefault("entity.salary_floor_ratio", 0)
	v.SetDefault("entity.payroll_processing_cost", 1200)
	v.SetDefault("entity.extra_filing_cost", 1500)
	v.SetDefault("entity.low_income_threshold", 40000)
	v.SetDefault("entity.benchmark_file", "")
	v.SetDefault("projection.inflation", 0.025)
	v.SetDefault("projection.income_growth", 0.03)
	v.SetDefault("projection.return_rate", 0.06)
	v.SetDefault("projection.contribution_rate", 0)
	v.SetDefault("recommend.high_priority_savings", 2000)
	v.SetDefault("recommend.medium_priority_savings", 500)

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if s.Entity.LowRiskRatio < s.Entity.HighRiskRatio {
		return nil, eris.Errorf("config: entity.low_risk_ratio %.2f is below entity.high_risk_ratio %.2f",
			s.Entity.LowRiskRatio, s.Entity.HighRiskRatio)
	}
	if s.Recommend.MediumPrioritySavings < 0 || s.Recommend.HighPrioritySavings < s.Recommend.MediumPrioritySavings {
		return nil, eris.Errorf("config: recommend.high_priority_savings %.2f must be at least recommend.medium_priority_savings %.2f",
			s.Recommend.HighPrioritySavings, s.Recommend.MediumPrioritySavings)
	}
	if s.Projection.ContributionRate < 0 || s.Projection.ContributionRate > 1 {
		return nil, eris.Errorf("config: projection.contribution_rate %.2f must be between 0 and 1", s.Projection.ContributionRate)
	}
	if s.Batch.Concurrency < 1 {
		s.Batch.Concurrency = 1
	}

	return &s, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
