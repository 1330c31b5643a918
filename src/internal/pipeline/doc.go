// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package pipeline reconciles a batch of domains into resolved and rejected
// partitions.
//
// A run filters the batch by hostname syntax, classifies the remaining
// distinct domains with a single threat lookup, and resolves certificates for
// the clean ones on a bounded worker pool. Every domain of a completed run ends
// in exactly one [Classification]:
//
//	SyntaxInvalid     rejected by the hostname grammar
//	ThreatFlagged     reported by the threat lookup
//	ResolutionFailed  certificate resolution failed
//	Resolved          certificate record available
//
// A failed threat lookup fails the whole run with [ErrIndeterminate]. Resolution
// failures are isolated per domain and never cancel sibling resolutions.
package pipeline
