// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package api exposes the three resolver operations.
//
// [Service] is transport neutral: it takes a [Request] and produces a
// [Response] holding the status, headers and JSON body. [NewRouter] serves
// it over HTTP:
//
//	GET /cert?domain=a.com&domain=b.com     leaf certificates
//	GET /root?domain=a.com                  trust anchors
//	GET /header?domain=a.com&array_name=TAs BearSSL trust-anchor header
//	GET /healthz                            liveness
//	GET /metrics                            Prometheus metrics
//
// A request without a domain parameter, or a batch whose threat status could
// not be determined, fails with status 500 and a generic message. Every
// response carries Access-Control-Allow-Origin: *.
package api
