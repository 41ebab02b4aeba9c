// Package zabbix provides the JSON-RPC client for the Zabbix frontend API
// and the capability probe that absorbs the differences between the two
// supported API generations (6.x and 7.x).
//
// The proxy representation changed incompatibly between those generations:
// 6.x exposes a single proxy_hostid field, 7.x splits the assignment into
// proxyid/proxy_groupid plus a monitored_by discriminator. Capabilities is
// resolved once from the version probe and consulted wherever that matters,
// so the sync engine itself stays free of version conditionals.
//
// Payloads destined for log output must pass through RedactHostParams, which
// masks secret macro values and SNMP credentials.
package zabbix
