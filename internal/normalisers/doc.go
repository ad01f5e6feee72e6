// Package normalisers turns uploaded file bytes into plain text.
// Only PDF is supported; see the pdf subpackage.
package normalisers
