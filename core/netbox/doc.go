// Package netbox provides the NetBox API client and the generic attribute
// tree the sync engine reads source records through.
//
// The client deliberately avoids a generated schema: device and VM records
// are decoded into a raw JSON tree and wrapped in Object, whose Lookup method
// resolves slash-delimited attribute paths the same way for every NetBox
// version. An unresolved path is an absent value, never an error.
//
// Writes are limited to the two effects the sync produces on NetBox: the
// Zabbix host ID custom field and journal entries.
package netbox
