// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package render_test

import (
	"crypto/x509/pkix"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/pipeline"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/render"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/certtest"
	x509chain "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/chain"
)

func sampleResult(t *testing.T) *pipeline.Result {
	t.Helper()
	root := certtest.NewRoot(t, pkix.Name{CommonName: "Render Root"}, certtest.ECDSAP256)

	return &pipeline.Result{
		Valid: []pipeline.Valid{{
			Domain: "example.com",
			Record: &x509chain.Record{Label: "Render Root", Cert: root.Cert, PEM: root.PEM()},
		}},
		Invalid: []pipeline.Invalid{
			{Domain: "bad", Reason: pipeline.SyntaxInvalid},
			{Domain: "evil.com", Reason: pipeline.ThreatFlagged},
		},
	}
}

func TestResultDocument(t *testing.T) {
	res := sampleResult(t)

	data, err := render.Marshal(render.NewResultDocument(res))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	valid := got["valid_domains"].([]any)
	require.Len(t, valid, 1)
	entry := valid[0].(map[string]any)
	assert.Equal(t, "example.com", entry["domain"])
	assert.Equal(t, "Render Root", entry["label"])
	assert.True(t, strings.HasPrefix(entry["cert"].(string), "-----BEGIN CERTIFICATE-----\n"))
	assert.Equal(t, []any{"bad", "evil.com"}, got["invalid_domains"])
	assert.False(t, strings.HasSuffix(string(data), "\n"))
}

func TestResultDocument_EmptyPartitions(t *testing.T) {
	data, err := render.Marshal(render.NewResultDocument(&pipeline.Result{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid_domains":[],"invalid_domains":[]}`, string(data))
}

func TestBundleDocument(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		valid   []string
		invalid []string
		want    string
	}{
		{
			name:    "With header",
			header:  "#include <bearssl_x509.h>\n",
			valid:   []string{"a.com"},
			invalid: []string{"b"},
			want:    `{"header":"#include <bearssl_x509.h>\n","valid_domains":["a.com"],"invalid_domains":["b"]}`,
		},
		{
			name:    "Nothing resolved",
			invalid: []string{"b"},
			want:    `{"header":"","valid_domains":[],"invalid_domains":["b"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := render.Marshal(render.NewBundleDocument(tt.header, tt.valid, tt.invalid))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestMarshal_NoHTMLEscape(t *testing.T) {
	data, err := render.Marshal(render.ErrorDocument{Message: "<a & b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"message":"<a & b>"}`, string(data))
}

func TestMarshal_Error(t *testing.T) {
	_, err := render.Marshal(make(chan int))
	assert.Error(t, err)
}

func TestTable(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, render.Table(&sb, sampleResult(t)))

	out := sb.String()
	assert.Contains(t, out, "example.com")
	assert.Contains(t, out, "Render Root")
	assert.Contains(t, out, "256-bit ECDSA")
	assert.Contains(t, out, "syntax_invalid")
	assert.Contains(t, out, "threat_flagged")
	assert.Contains(t, out, "evil.com")
}
