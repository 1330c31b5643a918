// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package safebrowsing classifies domains against the Google Safe Browsing v4
// Lookup API.
//
// A [Client] sends every domain of a batch in a single threatMatches:find
// request, using the https://<domain>/ URL form. The classification fails
// closed: any transport error, timeout, non-200 status, or response that does
// not match the expected shape yields [ErrIndeterminate] for the whole batch
// and no partial verdict.
//
// A domain is flagged when it occurs as a substring of any reported threat
// URL. A successful response without matches means every domain is clean.
//
// Example:
//
//	client, err := safebrowsing.New(safebrowsing.Config{APIKey: key})
//	if err != nil {
//		return err
//	}
//
//	verdict, err := client.Classify(ctx, []string{"example.com", "example.org"})
//	if errors.Is(err, safebrowsing.ErrIndeterminate) {
//		// reject the batch
//	}
package safebrowsing
