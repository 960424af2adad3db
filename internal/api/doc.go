// Package api implements the HTTP REST API for the trade-in resolution core.
//
// It exposes:
//   - Structured and free-text device resolution
//   - Manifest (bulk row) resolution with summary counts
//   - Alias management for operators confirming matches
//   - Reference library listing, cache refresh and device activation
//   - Health and runtime metrics
//
// The server depends on small interfaces (Resolver, Library, AliasLister)
// satisfied by the resolver engine, the catalog cache and the alias store.
// MQTT and InfluxDB are optional; when absent the related fields report
// disconnected and the resolution stats endpoint returns 503.
//
// Errors use a single JSON shape: {"status", "code", "message"}.
package api
