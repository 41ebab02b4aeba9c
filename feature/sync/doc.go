// Package sync implements the NetBox to Zabbix reconciliation engine.
//
// It computes the desired Zabbix state of every NetBox device and virtual
// machine and corrects the live host records to match:
//  1. NetBox is the single source of truth; manual Zabbix changes to
//     managed hosts are treated as divergence and overwritten.
//  2. Zabbix state never flows back into NetBox, except the host ID
//     written to the link custom field and optional journal entries.
//
// # Components
//
//   - Entity: the desired host state computed from one NetBox object
//     (hostgroups, templates, interface, proxy, inventory, macros, tags).
//   - Checker: fetches the live host record and corrects each divergence
//     with field-level partial updates.
//   - Service: drives a full run over all entities with a bounded worker
//     pool, contains per-entity failures and handles the create / disable /
//     remove lifecycle transitions.
//
// Version-dependent Zabbix API behavior (proxy schema, group selectors) is
// isolated in core/zabbix's Capabilities and resolved once at startup.
package sync
