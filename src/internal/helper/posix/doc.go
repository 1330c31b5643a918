// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package posix provides [POSIX]-style helpers for deriving the program name
// from argv in a way that behaves the same on every platform:
//
//   - Linux/macOS: "/usr/local/bin/trust-anchor-resolver" → "trust-anchor-resolver"
//   - Windows: "C:\bin\trust-anchor-resolver.exe" → "trust-anchor-resolver"
//   - Fallback: empty argv → [DefaultProgramName]
//
// [POSIX]: https://grokipedia.com/page/POSIX
package posix
