// Package services implements the driving ports: ingestion, retrieval,
// answering, uploads and settings.
//
// Services depend only on domain types and driven ports. Providers, the
// vector index and the rate limiter are injected by internal/app.
package services
