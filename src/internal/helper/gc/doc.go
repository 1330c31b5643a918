// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package gc provides reusable byte buffer pooling to reduce garbage collection overhead.
// It abstracts the [bytebufferpool] library so that the AIA fetcher, the threat
// intelligence client, the trust-anchor header generator and the JSON logger
// share one set of buffers under concurrent batches.
//
// [bytebufferpool]: https://github.com/valyala/bytebufferpool
package gc
