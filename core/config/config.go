package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/database"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/logger"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/netbox"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/server"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/storage"
	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/zabbix"
	syncfeature "github.com/TheNetworkGuy/netbox-zabbix-sync/feature/sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// NetBox holds configuration for the NetBox API connection.
	NetBox netbox.Config `mapstructure:"netbox"`
	// Zabbix holds configuration for the Zabbix API connection.
	Zabbix zabbix.Config `mapstructure:"zabbix"`
	// Sync holds the synchronization behavior settings.
	Sync syncfeature.Config `mapstructure:"sync"`
	// Server holds configuration for the webhook HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the run-history database.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the report object storage.
	Storage storage.Config `mapstructure:"storage"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. NETBOX_HOST -> netbox.host)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Sync.Normalize()

	return &config, nil
}

// Validate checks that the settings required for any sync run are present.
func (c *Config) Validate() error {
	if c.NetBox.Host == "" {
		return errors.New("netbox host is not configured")
	}
	if c.NetBox.Token == "" {
		return errors.New("netbox token is not configured")
	}
	if c.Zabbix.Host == "" {
		return errors.New("zabbix host is not configured")
	}
	if c.Zabbix.Token == "" && (c.Zabbix.User == "" || c.Zabbix.Password == "") {
		return errors.New("zabbix requires a token or a user/password pair")
	}
	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Map-valued settings have no flat default; Normalize fills them.
		if field.Type.Kind() == reflect.Map {
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
