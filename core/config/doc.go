// Package config provides configuration management for the sync service.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - NetBox: NetBox API endpoint and token
//   - Zabbix: Zabbix API endpoint and credentials
//   - Sync: hostgroup formats, filters, feature toggles
//   - Server: webhook HTTP server settings (port, API key)
//   - Database: MySQL connection details for run history
//   - Storage: S3/MinIO credentials for report uploads
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.NetBox.Host)
package config
