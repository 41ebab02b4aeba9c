package netbox

// Config holds configuration for the NetBox API connection.
type Config struct {
	// Host is the base URL of the NetBox instance, e.g. https://netbox.local.
	Host string `mapstructure:"host" default:""`
	// Token is the NetBox API token.
	Token string `mapstructure:"token" default:""`
	// TimeoutSeconds is the HTTP timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// CABundle is an optional path to a custom CA certificate bundle.
	CABundle string `mapstructure:"ca_bundle" default:""`
}
