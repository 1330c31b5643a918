// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package header_test

import (
	"crypto/ecdsa"
	"crypto/x509/pkix"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/certtest"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/header"
)

// arrayBytes extracts the initializer of the named unsigned char array.
func arrayBytes(t *testing.T, out, name string) []byte {
	t.Helper()

	re := regexp.MustCompile(`static const unsigned char ` + regexp.QuoteMeta(name) + `\[\] = \{\n([^}]*)\};`)
	m := re.FindStringSubmatch(out)
	require.NotNil(t, m, "array %s not found", name)

	var data []byte
	for _, tok := range strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || r == ' ' || r == '\n' || r == '\t' }) {
		v, err := strconv.ParseUint(tok, 0, 8)
		require.NoError(t, err, "bad token %q", tok)
		data = append(data, byte(v))
	}
	return data
}

func anchorFor(t *testing.T, cn string, alg certtest.Algorithm, domains ...string) header.Anchor {
	t.Helper()
	ca := certtest.NewRoot(t, pkix.Name{CommonName: cn}, alg)
	return header.Anchor{Cert: ca.Cert, Label: cn, Domains: domains}
}

func TestGenerate_Empty(t *testing.T) {
	out, err := header.Generate(nil, header.DefaultNames())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGenerate_KeyTypes(t *testing.T) {
	tests := []struct {
		name      string
		alg       certtest.Algorithm
		wantKey   string
		wantCurve string
		arrays    []string
	}{
		{name: "RSA", alg: certtest.RSA2048, wantKey: "BR_KEYTYPE_RSA", arrays: []string{"TAs_0_RSA_N", "TAs_0_RSA_E"}},
		{name: "P-256", alg: certtest.ECDSAP256, wantKey: "BR_KEYTYPE_EC", wantCurve: "BR_EC_secp256r1", arrays: []string{"TAs_0_EC_Q"}},
		{name: "P-384", alg: certtest.ECDSAP384, wantKey: "BR_KEYTYPE_EC", wantCurve: "BR_EC_secp384r1", arrays: []string{"TAs_0_EC_Q"}},
		{name: "P-521", alg: certtest.ECDSAP521, wantKey: "BR_KEYTYPE_EC", wantCurve: "BR_EC_secp521r1", arrays: []string{"TAs_0_EC_Q"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := anchorFor(t, tt.name+" Root", tt.alg, "example.com")

			out, err := header.Generate([]header.Anchor{a}, header.DefaultNames())
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(out, "#ifndef CERTIFICATES\n#define CERTIFICATES\n"))
			assert.True(t, strings.HasSuffix(out, "#endif /* ifndef CERTIFICATES */\n"))
			assert.Contains(t, out, "#include <bearssl_x509.h>")
			assert.Contains(t, out, "#define TAs_NUM 1\n")
			assert.Contains(t, out, "static const br_x509_trust_anchor TAs[TAs_NUM] = {")
			assert.Contains(t, out, "BR_X509_TA_CA")
			assert.Contains(t, out, tt.wantKey)
			if tt.wantCurve != "" {
				assert.Contains(t, out, tt.wantCurve)
			}

			assert.Equal(t, a.Cert.RawSubject, arrayBytes(t, out, "TAs_0_DN"))
			for _, name := range tt.arrays {
				assert.NotEmpty(t, arrayBytes(t, out, name))
			}
		})
	}
}

func TestGenerate_KeyBytes(t *testing.T) {
	rsaAnchor := anchorFor(t, "RSA Bytes Root", certtest.RSA2048, "rsa.example")
	ecAnchor := anchorFor(t, "EC Bytes Root", certtest.ECDSAP256, "ec.example")

	out, err := header.Generate([]header.Anchor{rsaAnchor, ecAnchor}, header.DefaultNames())
	require.NoError(t, err)

	assert.Contains(t, out, "#define TAs_NUM 2\n")
	assert.Equal(t, []byte{0x01, 0x00, 0x01}, arrayBytes(t, out, "TAs_0_RSA_E"))
	assert.Len(t, arrayBytes(t, out, "TAs_0_RSA_N"), 256)

	q := arrayBytes(t, out, "TAs_1_EC_Q")
	require.Len(t, q, 65)
	assert.Equal(t, byte(0x04), q[0], "EC point must be uncompressed")

	pub := ecAnchor.Cert.PublicKey.(*ecdsa.PublicKey)
	ecdhKey, err := pub.ECDH()
	require.NoError(t, err)
	assert.Equal(t, ecdhKey.Bytes(), q)
}

func TestGenerate_Names(t *testing.T) {
	a := anchorFor(t, "Names Root", certtest.ECDSAP256, "example.com")

	tests := []struct {
		name       string
		names      header.Names
		wantArray  string
		wantLength string
		wantGuard  string
	}{
		{
			name:       "Custom names",
			names:      header.Names{Array: "ROOTS", Length: "ROOTS_LEN", Guard: "MY_ROOTS_H"},
			wantArray:  "ROOTS",
			wantLength: "ROOTS_LEN",
			wantGuard:  "MY_ROOTS_H",
		},
		{
			name:       "Invalid identifiers fall back",
			names:      header.Names{Array: "1bad", Length: "has space", Guard: "ok_GUARD"},
			wantArray:  header.DefaultArrayName,
			wantLength: header.DefaultLengthName,
			wantGuard:  "ok_GUARD",
		},
		{
			name:       "Empty names fall back",
			names:      header.Names{},
			wantArray:  header.DefaultArrayName,
			wantLength: header.DefaultLengthName,
			wantGuard:  header.DefaultGuardName,
		},
		{
			name:       "Colliding names fall back",
			names:      header.Names{Array: "SAME", Length: "SAME", Guard: "G"},
			wantArray:  header.DefaultArrayName,
			wantLength: header.DefaultLengthName,
			wantGuard:  header.DefaultGuardName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := header.Generate([]header.Anchor{a}, tt.names)
			require.NoError(t, err)

			assert.Contains(t, out, "#ifndef "+tt.wantGuard+"\n")
			assert.Contains(t, out, "#define "+tt.wantLength+" 1\n")
			assert.Contains(t, out, "static const br_x509_trust_anchor "+tt.wantArray+"["+tt.wantLength+"]")
			assert.Contains(t, out, tt.wantArray+"_0_DN")
		})
	}
}

func TestGenerate_UnsupportedKey(t *testing.T) {
	a := anchorFor(t, "Ed25519 Root", certtest.Ed25519, "ed.example")

	assert.False(t, header.Supported(a.Cert))
	_, err := header.Generate([]header.Anchor{a}, header.DefaultNames())
	assert.ErrorIs(t, err, header.ErrUnsupportedKey)
}

func TestSupported(t *testing.T) {
	for _, alg := range []certtest.Algorithm{certtest.RSA2048, certtest.ECDSAP256, certtest.ECDSAP384, certtest.ECDSAP521} {
		a := anchorFor(t, "Supported Root", alg)
		assert.True(t, header.Supported(a.Cert))
	}
}

func TestGenerate_CommentInjection(t *testing.T) {
	a := anchorFor(t, "Evil */ #error boom /*/ Root", certtest.ECDSAP256, "evil*/.example\nnext")

	out, err := header.Generate([]header.Anchor{a}, header.DefaultNames())
	require.NoError(t, err)

	assert.NotContains(t, out, "Evil */")
	assert.NotContains(t, out, "evil*/")
	assert.Equal(t, strings.Count(out, "/*"), strings.Count(out, "*/"), "comments must stay balanced")
	for _, line := range strings.Split(out, "\n") {
		assert.False(t, strings.HasPrefix(line, "next"), "newline in domain must not start a new line")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	anchors := []header.Anchor{
		anchorFor(t, "Det A", certtest.ECDSAP256, "a.example"),
		anchorFor(t, "Det B", certtest.RSA2048, "b.example"),
	}

	first, err := header.Generate(anchors, header.DefaultNames())
	require.NoError(t, err)
	second, err := header.Generate(anchors, header.DefaultNames())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCollect(t *testing.T) {
	a := certtest.NewRoot(t, pkix.Name{CommonName: "Collect A"}, certtest.ECDSAP256)
	b := certtest.NewRoot(t, pkix.Name{CommonName: "Collect B"}, certtest.ECDSAP256)

	anchors := header.Collect([]header.Entry{
		{Domain: "one.example", Cert: a.Cert},
		{Domain: "two.example", Cert: b.Cert},
		{Domain: "three.example", Cert: a.Cert},
	})

	require.Len(t, anchors, 2)
	assert.Equal(t, "Collect A", anchors[0].Label)
	assert.Equal(t, []string{"one.example", "three.example"}, anchors[0].Domains)
	assert.Equal(t, "Collect B", anchors[1].Label)
	assert.Equal(t, []string{"two.example"}, anchors[1].Domains)
}

func TestIsIdentifier(t *testing.T) {
	tests := map[string]bool{
		"TAs":        true,
		"_private":   true,
		"TAs_NUM2":   true,
		"":           false,
		"9lives":     false,
		"with-dash":  false,
		"semi;colon": false,
	}
	for in, want := range tests {
		assert.Equal(t, want, header.IsIdentifier(in), "IsIdentifier(%q)", in)
	}
}
