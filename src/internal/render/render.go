// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package render turns pipeline results into response documents and tables.
package render

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/pipeline"
)

// ValidEntry is one resolved domain in a [ResultDocument].
type ValidEntry struct {
	Domain string `json:"domain"`
	Label  string `json:"label"`
	// Cert is the PEM encoded certificate.
	Cert string `json:"cert"`
}

// ResultDocument is the response of the certificate operations.
type ResultDocument struct {
	ValidDomains   []ValidEntry `json:"valid_domains"`
	InvalidDomains []string     `json:"invalid_domains"`
}

// BundleDocument is the response of the header operation. Header is empty
// when no trust anchor was resolved.
type BundleDocument struct {
	Header         string   `json:"header"`
	ValidDomains   []string `json:"valid_domains"`
	InvalidDomains []string `json:"invalid_domains"`
}

// ErrorDocument is the body of every failed request.
type ErrorDocument struct {
	Message string `json:"message"`
}

// NewResultDocument builds the certificate response for res.
func NewResultDocument(res *pipeline.Result) ResultDocument {
	doc := ResultDocument{
		ValidDomains:   make([]ValidEntry, 0, len(res.Valid)),
		InvalidDomains: nonNil(res.InvalidDomains()),
	}
	for _, v := range res.Valid {
		doc.ValidDomains = append(doc.ValidDomains, ValidEntry{
			Domain: v.Domain,
			Label:  v.Record.Label,
			Cert:   string(v.Record.PEM),
		})
	}
	return doc
}

// NewBundleDocument builds the header response.
func NewBundleDocument(header string, valid, invalid []string) BundleDocument {
	return BundleDocument{
		Header:         header,
		ValidDomains:   nonNil(valid),
		InvalidDomains: nonNil(invalid),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Marshal encodes v as JSON without HTML escaping. The result does not end
// in a newline.
func Marshal(v any) ([]byte, error) {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("render: encode: %w", err)
	}

	out := gc.Copy(buf)
	return out[:len(out)-1], nil
}

// Table writes res as a markdown table, one row per input domain.
func Table(w io.Writer, res *pipeline.Result) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"#", "Domain", "Status", "Certificate", "Key", "Valid Until"})

	rows := make([][]string, 0, len(res.Valid)+len(res.Invalid))
	for _, v := range res.Valid {
		cert := v.Record.Cert
		notAfter, key := "", ""
		if cert != nil {
			notAfter = cert.NotAfter.Format("2006-01-02")
			key = keyDescription(cert.PublicKey)
		}
		rows = append(rows, []string{
			strconv.Itoa(len(rows) + 1),
			v.Domain,
			pipeline.Resolved.String(),
			v.Record.Label,
			key,
			notAfter,
		})
	}
	for _, inv := range res.Invalid {
		rows = append(rows, []string{
			strconv.Itoa(len(rows) + 1),
			inv.Domain,
			inv.Reason.String(),
			"", "", "",
		})
	}

	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("render: table rows: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render: table: %w", err)
	}
	return nil
}

func keyDescription(pub any) string {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return fmt.Sprintf("%d-bit RSA", k.Size()*8)
	case *ecdsa.PublicKey:
		return fmt.Sprintf("%d-bit ECDSA", k.Curve.Params().BitSize)
	default:
		return "other"
	}
}
