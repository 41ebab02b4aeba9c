// Package utils provides common utility functions for the sync application.
// It includes helper functions for type conversion of the loosely typed
// values coming out of decoded NetBox and Zabbix API responses.
package utils
