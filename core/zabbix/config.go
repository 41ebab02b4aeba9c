package zabbix

// Config holds configuration for the Zabbix API connection. Either a token
// or a user/password pair must be provided.
type Config struct {
	// Host is the base URL of the Zabbix frontend, e.g. https://zabbix.local.
	Host string `mapstructure:"host" default:""`
	// Token is a Zabbix API token. Takes precedence over user/password.
	Token string `mapstructure:"token" default:""`
	// User is the Zabbix API user name.
	User string `mapstructure:"user" default:""`
	// Password is the Zabbix API user password.
	Password string `mapstructure:"password" default:""`
	// TimeoutSeconds is the HTTP timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// CABundle is an optional path to a custom CA certificate bundle.
	CABundle string `mapstructure:"ca_bundle" default:""`
}
