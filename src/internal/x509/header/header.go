// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package header

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/certs"
)

// ErrUnsupportedKey is returned for anchors whose public key BearSSL cannot use.
var ErrUnsupportedKey = errors.New("header: unsupported trust anchor key type")

// bytesPerLine is the number of array elements per generated line.
const bytesPerLine = 12

// Entry pairs a resolved domain with its trust anchor.
type Entry struct {
	Domain string
	Cert   *x509.Certificate
}

// Anchor is one distinct trust anchor and every domain that resolved to it.
type Anchor struct {
	Cert    *x509.Certificate
	Label   string
	Domains []string
}

// Collect merges entries that share the same anchor certificate, keeping the
// order in which each anchor and each domain was first seen.
func Collect(entries []Entry) []Anchor {
	var anchors []Anchor
	index := make(map[string]int, len(entries))

	for _, e := range entries {
		key := string(e.Cert.Raw)
		if i, ok := index[key]; ok {
			anchors[i].Domains = append(anchors[i].Domains, e.Domain)
			continue
		}
		index[key] = len(anchors)
		anchors = append(anchors, Anchor{
			Cert:    e.Cert,
			Label:   x509certs.Label(e.Cert),
			Domains: []string{e.Domain},
		})
	}
	return anchors
}

// Supported reports whether cert carries a key the header can encode.
func Supported(cert *x509.Certificate) bool {
	switch pub := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return true
	case *ecdsa.PublicKey:
		return curveName(pub.Curve) != ""
	default:
		return false
	}
}

func curveName(c elliptic.Curve) string {
	switch c {
	case elliptic.P256():
		return "BR_EC_secp256r1"
	case elliptic.P384():
		return "BR_EC_secp384r1"
	case elliptic.P521():
		return "BR_EC_secp521r1"
	default:
		return ""
	}
}

// Generate renders anchors as a BearSSL header. Names are normalized first.
// An empty anchor list yields an empty string.
func Generate(anchors []Anchor, names Names) (string, error) {
	if len(anchors) == 0 {
		return "", nil
	}
	names = names.Normalize()

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	w := &writer{buf: buf, names: names}
	w.prologue(anchors)

	keys := make([]string, len(anchors))
	for i, a := range anchors {
		k, err := w.anchorData(i, a)
		if err != nil {
			return "", err
		}
		keys[i] = k
	}

	w.array(keys)
	w.epilogue()

	return buf.String(), nil
}

type writer struct {
	buf   gc.Buffer
	names Names
}

func (w *writer) printf(format string, args ...any) {
	fmt.Fprintf(w.buf, format, args...)
}

func (w *writer) prologue(anchors []Anchor) {
	var domains []string
	for _, a := range anchors {
		domains = append(domains, a.Domains...)
	}

	w.printf("#ifndef %s\n#define %s\n\n", w.names.Guard, w.names.Guard)
	w.printf("#ifdef __cplusplus\nextern \"C\"\n{\n#endif\n\n")
	w.printf("/* This file is auto-generated by the trust anchor resolver. */\n")
	w.printf("/* Trust anchors for: %s */\n\n", comment(strings.Join(domains, ", ")))
	w.printf("#include <bearssl_x509.h>\n\n")
	w.printf("#define %s %d\n\n", w.names.Length, len(anchors))
}

// anchorData writes the byte arrays of anchor i and returns the key
// initializer for the trust anchor array.
func (w *writer) anchorData(i int, a Anchor) (string, error) {
	prefix := w.names.Array + "_" + strconv.Itoa(i)

	w.printf("/* %d: %s (%s) */\n", i, comment(a.Label), comment(strings.Join(a.Domains, ", ")))
	w.bytesArray(prefix+"_DN", a.Cert.RawSubject)

	switch pub := a.Cert.PublicKey.(type) {
	case *rsa.PublicKey:
		w.bytesArray(prefix+"_RSA_N", pub.N.Bytes())
		w.bytesArray(prefix+"_RSA_E", big.NewInt(int64(pub.E)).Bytes())
		return fmt.Sprintf("\t\t\tBR_KEYTYPE_RSA,\n"+
			"\t\t\t{ .rsa = {\n"+
			"\t\t\t\t(unsigned char *)%[1]s_RSA_N, sizeof %[1]s_RSA_N,\n"+
			"\t\t\t\t(unsigned char *)%[1]s_RSA_E, sizeof %[1]s_RSA_E,\n"+
			"\t\t\t} }\n", prefix), nil

	case *ecdsa.PublicKey:
		curve := curveName(pub.Curve)
		if curve == "" {
			return "", fmt.Errorf("%w: curve %s", ErrUnsupportedKey, pub.Curve.Params().Name)
		}
		point, err := pub.ECDH()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnsupportedKey, err)
		}
		w.bytesArray(prefix+"_EC_Q", point.Bytes())
		return fmt.Sprintf("\t\t\tBR_KEYTYPE_EC,\n"+
			"\t\t\t{ .ec = {\n"+
			"\t\t\t\t%[2]s,\n"+
			"\t\t\t\t(unsigned char *)%[1]s_EC_Q, sizeof %[1]s_EC_Q,\n"+
			"\t\t\t} }\n", prefix, curve), nil

	default:
		return "", fmt.Errorf("%w: %T (%s)", ErrUnsupportedKey, pub, a.Label)
	}
}

func (w *writer) bytesArray(name string, data []byte) {
	w.printf("static const unsigned char %s[] = {\n", name)
	for len(data) > 0 {
		n := min(bytesPerLine, len(data))
		w.buf.WriteByte('\t')
		for j, b := range data[:n] {
			if j > 0 {
				w.buf.WriteByte(' ')
			}
			w.printf("0x%02X,", b)
		}
		w.buf.WriteByte('\n')
		data = data[n:]
	}
	w.printf("};\n\n")
}

func (w *writer) array(keys []string) {
	w.printf("static const br_x509_trust_anchor %s[%s] = {\n", w.names.Array, w.names.Length)
	for i, k := range keys {
		prefix := w.names.Array + "_" + strconv.Itoa(i)
		w.printf("\t{\n")
		w.printf("\t\t{ (unsigned char *)%[1]s_DN, sizeof %[1]s_DN },\n", prefix)
		w.printf("\t\tBR_X509_TA_CA,\n")
		w.printf("\t\t{\n%s\t\t}\n", k)
		w.printf("\t},\n")
	}
	w.printf("};\n\n")
}

func (w *writer) epilogue() {
	w.printf("#ifdef __cplusplus\n} /* extern \"C\" */\n#endif\n\n")
	w.printf("#endif /* ifndef %s */\n", w.names.Guard)
}

// comment makes s safe to place inside a C block comment.
func comment(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
	for strings.Contains(s, "*/") || strings.Contains(s, "/*") {
		s = commentEscaper.Replace(s)
	}
	return s
}

var commentEscaper = strings.NewReplacer("*/", "* /", "/*", "/ *")
