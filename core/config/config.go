package config

import (
	"reflect"
	"strings"

	"geomancer/core/database"
	"geomancer/core/geo"
	"geomancer/core/logger"
	"geomancer/core/mancer"
	"geomancer/core/queue"
	"geomancer/core/server"
	"geomancer/core/spreadsheet"
	"geomancer/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage that keeps uploads and results.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the optional job history and gazetteer database.
	Database database.Config `mapstructure:"database"`
	// Redis holds the connection settings of the job queue backend.
	Redis queue.RedisConfig `mapstructure:"redis"`
	// Queue holds job queue settings.
	Queue queue.Config `mapstructure:"queue"`
	// Mancer holds data source adapter settings.
	Mancer mancer.Config `mapstructure:"mancer"`
	// Geo holds geography catalog settings.
	Geo geo.Config `mapstructure:"geo"`
	// Upload holds spreadsheet parsing limits.
	Upload spreadsheet.Config `mapstructure:"upload"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Missing .env is fine outside development.
	_ = godotenv.Overload(envPath)

	v := viper.New()
	bindValues(v, Config{}, "")

	// MANCER_CENSUS_REPORTER_API_KEY -> mancer.census_reporter.api_key
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues walks the struct and registers every mapstructure key with its
// default tag value so AutomaticEnv can resolve it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
