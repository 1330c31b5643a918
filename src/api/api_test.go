// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package api_test

import (
	"context"
	"crypto/x509/pkix"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/api"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/pipeline"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/certtest"
	x509chain "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/header"
)

type call struct {
	Batch    []string
	WantRoot bool
	Bundle   bool
}

type fakeRunner struct {
	mu     sync.Mutex
	result *pipeline.Result
	err    error
	calls  []call
}

func (f *fakeRunner) Run(_ context.Context, batch []string, wantRoot bool) (*pipeline.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Batch: batch, WantRoot: wantRoot})
	return f.result, f.err
}

func (f *fakeRunner) RunBundle(_ context.Context, batch []string) (*pipeline.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Batch: batch, WantRoot: true, Bundle: true})
	return f.result, f.err
}

func valid(t *testing.T, domain, cn string, alg certtest.Algorithm) pipeline.Valid {
	t.Helper()
	root := certtest.NewRoot(t, pkix.Name{CommonName: cn}, alg)
	return pipeline.Valid{
		Domain: domain,
		Record: &x509chain.Record{Label: cn, Cert: root.Cert, PEM: root.PEM()},
	}
}

func assertGenericError(t *testing.T, resp api.Response) {
	t.Helper()
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.JSONEq(t, `{"message":"Could not process your request."}`, string(resp.Body))
}

func TestHandle_Certificates(t *testing.T) {
	for _, tt := range []struct {
		op       api.Operation
		wantRoot bool
	}{
		{api.OpCertificates, false},
		{api.OpRootCertificates, true},
	} {
		t.Run(tt.op.String(), func(t *testing.T) {
			runner := &fakeRunner{result: &pipeline.Result{
				Valid:   []pipeline.Valid{valid(t, "example.com", "Example CA", certtest.ECDSAP256)},
				Invalid: []pipeline.Invalid{{Domain: "bad", Reason: pipeline.SyntaxInvalid}},
			}}
			svc := api.NewService(runner, header.DefaultNames(), nil)

			resp := svc.Handle(context.Background(), tt.op, api.Request{Domains: []string{"example.com", "bad"}})
			require.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
			assert.Equal(t, "application/json", resp.Headers["Content-Type"])

			var doc struct {
				Valid []struct {
					Domain string `json:"domain"`
					Label  string `json:"label"`
					Cert   string `json:"cert"`
				} `json:"valid_domains"`
				Invalid []string `json:"invalid_domains"`
			}
			require.NoError(t, json.Unmarshal(resp.Body, &doc))
			require.Len(t, doc.Valid, 1)
			assert.Equal(t, "example.com", doc.Valid[0].Domain)
			assert.Equal(t, "Example CA", doc.Valid[0].Label)
			assert.Contains(t, doc.Valid[0].Cert, "BEGIN CERTIFICATE")
			assert.Equal(t, []string{"bad"}, doc.Invalid)

			require.Len(t, runner.calls, 1)
			assert.Equal(t, call{Batch: []string{"example.com", "bad"}, WantRoot: tt.wantRoot}, runner.calls[0])
		})
	}
}

func TestHandle_Failures(t *testing.T) {
	tests := []struct {
		name      string
		op        api.Operation
		req       api.Request
		err       error
		wantCalls int
	}{
		{name: "Missing domains", op: api.OpCertificates, req: api.Request{}},
		{name: "Missing domains header", op: api.OpHeader, req: api.Request{}},
		{name: "Unknown operation", op: api.Operation(9), req: api.Request{Domains: []string{"a.com"}}},
		{
			name:      "Indeterminate run",
			op:        api.OpRootCertificates,
			req:       api.Request{Domains: []string{"a.com"}},
			err:       fmt.Errorf("%w: upstream 503 secret-detail", pipeline.ErrIndeterminate),
			wantCalls: 1,
		},
		{
			name:      "Indeterminate bundle",
			op:        api.OpHeader,
			req:       api.Request{Domains: []string{"a.com"}},
			err:       pipeline.ErrIndeterminate,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{result: &pipeline.Result{}, err: tt.err}
			svc := api.NewService(runner, header.DefaultNames(), nil)

			resp := svc.Handle(context.Background(), tt.op, tt.req)
			assertGenericError(t, resp)
			assert.NotContains(t, string(resp.Body), "secret-detail")
			assert.Len(t, runner.calls, tt.wantCalls)
		})
	}
}

func TestCertificates_EmptyBatch(t *testing.T) {
	runner := &fakeRunner{result: &pipeline.Result{}}
	svc := api.NewService(runner, header.DefaultNames(), nil)

	resp := svc.Handle(context.Background(), api.OpCertificates, api.Request{Domains: []string{}})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"valid_domains":[],"invalid_domains":[]}`, string(resp.Body))
}

func TestHeader(t *testing.T) {
	ec := valid(t, "ec.example", "EC Root", certtest.ECDSAP384)
	ecAgain := pipeline.Valid{Domain: "www.ec.example", Record: ec.Record}
	rsa := valid(t, "rsa.example", "RSA Root", certtest.RSA2048)
	ed := valid(t, "ed.example", "Ed Root", certtest.Ed25519)

	runner := &fakeRunner{result: &pipeline.Result{
		Valid:   []pipeline.Valid{ec, rsa, ed, ecAgain},
		Invalid: []pipeline.Invalid{{Domain: "evil.example", Reason: pipeline.ThreatFlagged}},
	}}
	svc := api.NewService(runner, header.DefaultNames(), nil)

	doc, err := svc.Header(context.Background(), []string{"ec.example", "rsa.example", "ed.example", "www.ec.example", "evil.example"}, api.Params{})
	require.NoError(t, err)

	assert.Equal(t, []string{"ec.example", "rsa.example", "www.ec.example"}, doc.ValidDomains)
	assert.Equal(t, []string{"evil.example", "ed.example"}, doc.InvalidDomains)
	assert.Contains(t, doc.Header, "#define TAs_NUM 2\n")
	assert.Contains(t, doc.Header, "BR_EC_secp384r1")
	assert.Contains(t, doc.Header, "BR_KEYTYPE_RSA")
	assert.Contains(t, doc.Header, "www.ec.example")

	require.Len(t, runner.calls, 1)
	assert.True(t, runner.calls[0].Bundle)
}

func TestHeader_NothingResolved(t *testing.T) {
	runner := &fakeRunner{result: &pipeline.Result{
		Invalid: []pipeline.Invalid{{Domain: "bad", Reason: pipeline.SyntaxInvalid}},
	}}
	svc := api.NewService(runner, header.DefaultNames(), nil)

	resp := svc.Handle(context.Background(), api.OpHeader, api.Request{Domains: []string{"bad"}})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"header":"","valid_domains":[],"invalid_domains":["bad"]}`, string(resp.Body))
}

func TestHeaderNames(t *testing.T) {
	svc := api.NewService(&fakeRunner{}, header.Names{Array: "ROOTS", Length: "ROOTS_NUM", Guard: "ROOTS_H"}, nil)
	long := strings.Repeat("A", api.MaxParamLength+1)
	maxLen := strings.Repeat("B", api.MaxParamLength)

	tests := []struct {
		name   string
		params api.Params
		want   header.Names
	}{
		{
			name:   "Absent uses service defaults",
			params: api.Params{},
			want:   header.Names{Array: "ROOTS", Length: "ROOTS_NUM", Guard: "ROOTS_H"},
		},
		{
			name:   "Explicit",
			params: api.Params{ArrayName: "MY", LengthName: "MY_LEN", GuardName: "MY_H"},
			want:   header.Names{Array: "MY", Length: "MY_LEN", Guard: "MY_H"},
		},
		{
			name:   "Oversized uses service default",
			params: api.Params{ArrayName: long, LengthName: "MY_LEN"},
			want:   header.Names{Array: "ROOTS", Length: "MY_LEN", Guard: "ROOTS_H"},
		},
		{
			name:   "Maximum length accepted",
			params: api.Params{ArrayName: maxLen},
			want:   header.Names{Array: maxLen, Length: "ROOTS_NUM", Guard: "ROOTS_H"},
		},
		{
			name:   "Not an identifier",
			params: api.Params{GuardName: "X */ #error"},
			want:   header.Names{Array: "ROOTS", Length: "ROOTS_NUM", Guard: header.DefaultGuardName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.HeaderNames(tt.params))
		})
	}
}

func TestParamOrDefault(t *testing.T) {
	assert.Equal(t, "def", api.ParamOrDefault("", "def"))
	assert.Equal(t, "v", api.ParamOrDefault("v", "def"))
	assert.Equal(t, "def", api.ParamOrDefault(strings.Repeat("x", 513), "def"))
	assert.Equal(t, strings.Repeat("x", 512), api.ParamOrDefault(strings.Repeat("x", 512), "def"))
}
