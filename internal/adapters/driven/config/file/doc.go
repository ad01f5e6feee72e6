// Package file provides file-based configuration adapters.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage (~/.pdfchat/config.toml)
//   - PromptStore: user-editable prompt templates (~/.pdfchat/prompts)
//   - ApplyEnv: environment and .env overlay on top of stored settings
package file
