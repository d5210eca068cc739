package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Forecast    ForecastConfig  `mapstructure:"forecast"`
	Guardrail   GuardrailConfig `mapstructure:"guardrail"`
	Pattern     PatternConfig   `mapstructure:"pattern"`
	Trust       TrustConfig     `mapstructure:"trust"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ForecastConfig carries every tuning constant of the forecasting engine.
// The numeric defaults are product-tuning choices, not derived optima; deployments
// are expected to override them rather than trust them.
type ForecastConfig struct {
	// Preprocessing
	MinPoints int `mapstructure:"min_points"` // hard floor; just what the naive fallback needs

	// Quality assessment
	MinSeasonalPoints      int     `mapstructure:"min_seasonal_points"` // below this, series_too_short
	SpikinessCVThreshold   float64 `mapstructure:"spikiness_cv_threshold"`
	SpikeSigmaThreshold    float64 `mapstructure:"spike_sigma_threshold"`
	ShockSigmaThreshold    float64 `mapstructure:"shock_sigma_threshold"`
	ShockTrailingWindow    int     `mapstructure:"shock_trailing_window"`
	VolatilityWindow       int     `mapstructure:"volatility_window"`
	SeasonalCycleDays      int     `mapstructure:"seasonal_cycle_days"`
	MaxAROrder             int     `mapstructure:"max_ar_order"`
	DampingFactor          float64 `mapstructure:"damping_factor"`

	// Backtesting
	BacktestMinTrainPoints int `mapstructure:"backtest_min_train_points"`
	BacktestFoldHorizon    int `mapstructure:"backtest_fold_horizon"`
	BacktestMaxFolds       int `mapstructure:"backtest_max_folds"`
	BacktestMinFolds       int `mapstructure:"backtest_min_folds"` // below this, metrics are withheld

	// Interval estimation
	MinResidualsForQuantiles int     `mapstructure:"min_residuals_for_quantiles"`
	MinBandWidth             float64 `mapstructure:"min_band_width"`

	// Confidence scoring
	FlagPenalty        float64 `mapstructure:"flag_penalty"`         // score deduction per raised flag
	MaxHorizon         int     `mapstructure:"max_horizon"`          // request cap, days
	DefaultHorizon     int     `mapstructure:"default_horizon"`      // days
	CacheTTL           string  `mapstructure:"cache_ttl"`
}

// GuardrailConfig holds the fail-closed suppression thresholds.
type GuardrailConfig struct {
	MinSeriesLength    int     `mapstructure:"min_series_length"`
	AgreementFloor     float64 `mapstructure:"agreement_floor"`
	HighVolatilityCV   float64 `mapstructure:"high_volatility_cv"`
}

// PatternConfig holds the cycle-detection thresholds. Stricter consistency is
// demanded of higher-frequency cycles.
type PatternConfig struct {
	AnnualConsistency    float64 `mapstructure:"annual_consistency"`
	QuarterlyConsistency float64 `mapstructure:"quarterly_consistency"`
	MonthlyConsistency   float64 `mapstructure:"monthly_consistency"`
	WeeklyConsistency    float64 `mapstructure:"weekly_consistency"`
	AnnualMinPeaks       int     `mapstructure:"annual_min_peaks"`
	QuarterlyMinPeaks    int     `mapstructure:"quarterly_min_peaks"`
	MonthlyMinPeaks      int     `mapstructure:"monthly_min_peaks"`
	WeeklyMinPeaks       int     `mapstructure:"weekly_min_peaks"`
	MonthlyDayTolerance  int     `mapstructure:"monthly_day_tolerance"`
}

type TrustConfig struct {
	CacheTTL string `mapstructure:"cache_ttl"`
}

// ForecastCacheTTL parses the configured pack cache TTL, falling back to a
// conservative default on a malformed value.
func (c *ForecastConfig) ForecastCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// TrustCacheTTL parses the trust stats cache TTL.
func (c *TrustConfig) TrustCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *Config) error {
	if c.Forecast.MinPoints < 3 {
		return fmt.Errorf("forecast.min_points must be at least 3, got %d", c.Forecast.MinPoints)
	}
	if c.Forecast.MinSeasonalPoints < c.Forecast.MinPoints {
		return fmt.Errorf("forecast.min_seasonal_points (%d) must be >= forecast.min_points (%d)",
			c.Forecast.MinSeasonalPoints, c.Forecast.MinPoints)
	}
	if c.Forecast.DampingFactor <= 0 || c.Forecast.DampingFactor > 1 {
		return fmt.Errorf("forecast.damping_factor must be in (0, 1], got %f", c.Forecast.DampingFactor)
	}
	if c.Forecast.MaxHorizon < c.Forecast.DefaultHorizon {
		return fmt.Errorf("forecast.max_horizon (%d) must be >= forecast.default_horizon (%d)",
			c.Forecast.MaxHorizon, c.Forecast.DefaultHorizon)
	}
	if c.Guardrail.AgreementFloor < 0 || c.Guardrail.AgreementFloor > 1 {
		return fmt.Errorf("guardrail.agreement_floor must be in [0, 1], got %f", c.Guardrail.AgreementFloor)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "trendduel")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.conn_max_lifetime", "300s")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Forecast engine. Observed product tuning, deliberately overridable.
	// The hard floor only guards what the naive model needs; short series
	// flow through and get suppressed by the quality flags and guardrail.
	viper.SetDefault("forecast.min_points", 3)
	viper.SetDefault("forecast.min_seasonal_points", 60)
	viper.SetDefault("forecast.spikiness_cv_threshold", 1.5)
	viper.SetDefault("forecast.spike_sigma_threshold", 4.0)
	viper.SetDefault("forecast.shock_sigma_threshold", 3.0)
	viper.SetDefault("forecast.shock_trailing_window", 7)
	viper.SetDefault("forecast.volatility_window", 28)
	viper.SetDefault("forecast.seasonal_cycle_days", 7)
	viper.SetDefault("forecast.max_ar_order", 5)
	viper.SetDefault("forecast.damping_factor", 0.9)
	viper.SetDefault("forecast.backtest_min_train_points", 28)
	viper.SetDefault("forecast.backtest_fold_horizon", 7)
	viper.SetDefault("forecast.backtest_max_folds", 8)
	viper.SetDefault("forecast.backtest_min_folds", 3)
	viper.SetDefault("forecast.min_residuals_for_quantiles", 20)
	viper.SetDefault("forecast.min_band_width", 1.0)
	viper.SetDefault("forecast.flag_penalty", 15.0)
	viper.SetDefault("forecast.max_horizon", 90)
	viper.SetDefault("forecast.default_horizon", 14)
	viper.SetDefault("forecast.cache_ttl", "15m")

	viper.SetDefault("guardrail.min_series_length", 30)
	viper.SetDefault("guardrail.agreement_floor", 0.4)
	viper.SetDefault("guardrail.high_volatility_cv", 1.5)

	viper.SetDefault("pattern.annual_consistency", 0.60)
	viper.SetDefault("pattern.quarterly_consistency", 0.50)
	viper.SetDefault("pattern.monthly_consistency", 0.60)
	viper.SetDefault("pattern.weekly_consistency", 0.70)
	viper.SetDefault("pattern.annual_min_peaks", 3)
	viper.SetDefault("pattern.quarterly_min_peaks", 4)
	viper.SetDefault("pattern.monthly_min_peaks", 4)
	viper.SetDefault("pattern.weekly_min_peaks", 4)
	viper.SetDefault("pattern.monthly_day_tolerance", 3)

	viper.SetDefault("trust.cache_ttl", "5m")
}
