// Package connectors holds the sources that feed documents into the
// ingestion pipeline. The filesystem connector walks and watches a local
// directory of PDFs and hands each file to the upload service.
package connectors
