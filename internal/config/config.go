package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	JWTExpiryH  int    `env:"JWT_EXPIRY_HOURS" envDefault:"24"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Compliance thresholds in JOD. Totals strictly above the threshold
	// trigger a hold; a total exactly at the threshold passes.
	OutgoingThresholdJOD float64 `env:"OUTGOING_THRESHOLD_JOD" envDefault:"15000"`
	IncomingThresholdJOD float64 `env:"INCOMING_THRESHOLD_JOD" envDefault:"20000"`

	// Flat fee bands used when a country has no configured tiers.
	FlatBand1MaxJOD float64 `env:"FLAT_BAND1_MAX_JOD" envDefault:"500"`
	FlatBand1Fee    float64 `env:"FLAT_BAND1_FEE" envDefault:"5"`
	FlatBand2MaxJOD float64 `env:"FLAT_BAND2_MAX_JOD" envDefault:"1000"`
	FlatBand2Fee    float64 `env:"FLAT_BAND2_FEE" envDefault:"7"`
	FlatBandTopFee  float64 `env:"FLAT_BAND_TOP_FEE" envDefault:"10"`

	SeedAdminUsername string `env:"SEED_ADMIN_USERNAME" envDefault:"admin"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD" envDefault:"123456"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
