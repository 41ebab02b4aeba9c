// Package webhook reacts to NetBox object change notifications.
//
// NetBox posts a JSON payload on device or virtual machine changes; the
// handler reconciles just the affected entity instead of waiting for the
// next full sync run. Deletion events are ignored because the source object
// is already gone; decommissioning flows through status classification on
// updates instead.
//
// # HTTP Endpoints
//
//   - POST /webhook : receive a NetBox change notification.
package webhook
