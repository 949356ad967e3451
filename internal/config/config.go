package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool

	// ReferralPercent is the fallback bonus percentage when the Settings row
	// is absent. Admins override it at runtime via the settings endpoint.
	ReferralPercent float64

	// AccrualInterval is how often the yield sweep runs.
	AccrualInterval time.Duration
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	switch env {
	case "production":
		if v := viper.GetString("DATABASE_URL_PROD"); v != "" {
			dbURL = v
		}
	case "test":
		if v := viper.GetString("DATABASE_URL_TEST"); v != "" {
			dbURL = v
		}
	}

	// An explicit 0 means "no bonus"; only an absent key falls back.
	referral := 15.0
	if viper.IsSet("REFERRAL_BONUS_PERCENT") {
		referral = viper.GetFloat64("REFERRAL_BONUS_PERCENT")
	}

	intervalHours := viper.GetInt("ACCRUAL_INTERVAL_HOURS")
	if intervalHours <= 0 {
		intervalHours = 24
	}

	return &Config{
		Env:                 env,
		Port:                port,
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		ReferralPercent:     referral,
		AccrualInterval:     time.Duration(intervalHours) * time.Hour,
	}, nil
}
