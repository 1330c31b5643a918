// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/pipeline"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/render"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/header"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/logger"
)

const (
	// MaxParamLength is the longest accepted header name parameter. Longer
	// values are replaced by the default.
	MaxParamLength = 512

	// GenericErrorMessage is the only error text a caller ever sees.
	GenericErrorMessage = "Could not process your request."
)

// ErrMalformedRequest means the request carried no domain list.
var ErrMalformedRequest = errors.New("api: malformed request")

// Runner executes pipeline runs.
type Runner interface {
	Run(ctx context.Context, batch []string, wantRoot bool) (*pipeline.Result, error)
	RunBundle(ctx context.Context, batch []string) (*pipeline.Result, error)
}

// Operation selects what a request returns.
type Operation int

const (
	// OpCertificates returns leaf certificates.
	OpCertificates Operation = iota
	// OpRootCertificates returns trust anchors.
	OpRootCertificates
	// OpHeader returns a BearSSL trust-anchor header.
	OpHeader
)

func (o Operation) String() string {
	switch o {
	case OpCertificates:
		return "certificates"
	case OpRootCertificates:
		return "root_certificates"
	case OpHeader:
		return "header"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// Params holds the optional header name parameters as received. Empty
// means absent.
type Params struct {
	ArrayName  string
	LengthName string
	GuardName  string
}

// Request is a transport-neutral request. A nil Domains slice means the
// domain parameter was absent; an empty non-nil slice is a valid, empty batch.
type Request struct {
	Domains []string
	Params  Params
}

// Response is a transport-neutral response.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Service implements the operations on top of a [Runner].
type Service struct {
	runner Runner
	names  header.Names
	log    logger.Logger
}

// NewService returns a service. names are the defaults applied when a
// request omits or oversizes a header name parameter.
func NewService(runner Runner, names header.Names, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewJSONLogger(io.Discard, true)
	}
	return &Service{runner: runner, names: names.Normalize(), log: log}
}

// Handle runs op for req and renders the response. Failures are logged
// and answered with a generic 500.
func (s *Service) Handle(ctx context.Context, op Operation, req Request) Response {
	var (
		doc any
		err error
	)
	switch op {
	case OpCertificates:
		doc, err = s.Certificates(ctx, req.Domains, false)
	case OpRootCertificates:
		doc, err = s.Certificates(ctx, req.Domains, true)
	case OpHeader:
		doc, err = s.Header(ctx, req.Domains, req.Params)
	default:
		err = fmt.Errorf("%w: unknown operation %s", ErrMalformedRequest, op)
	}
	if err != nil {
		s.log.Printf("%s request failed: %v", op, err)
		return errorResponse()
	}

	body, err := render.Marshal(doc)
	if err != nil {
		s.log.Printf("%s response encoding failed: %v", op, err)
		return errorResponse()
	}
	return newResponse(http.StatusOK, body)
}

// Certificates runs the batch and returns leaf certificates, or trust
// anchors with wantRoot.
func (s *Service) Certificates(ctx context.Context, domains []string, wantRoot bool) (render.ResultDocument, error) {
	if domains == nil {
		return render.ResultDocument{}, ErrMalformedRequest
	}

	res, err := s.runner.Run(ctx, domains, wantRoot)
	if err != nil {
		return render.ResultDocument{}, err
	}
	return render.NewResultDocument(res), nil
}

// Header deduplicates the batch, resolves trust anchors and generates the
// header. Domains whose anchor key BearSSL cannot hold move to the invalid
// partition.
func (s *Service) Header(ctx context.Context, domains []string, params Params) (render.BundleDocument, error) {
	if domains == nil {
		return render.BundleDocument{}, ErrMalformedRequest
	}

	res, err := s.runner.RunBundle(ctx, domains)
	if err != nil {
		return render.BundleDocument{}, err
	}

	invalid := res.InvalidDomains()
	valid := make([]string, 0, len(res.Valid))
	entries := make([]header.Entry, 0, len(res.Valid))
	for _, v := range res.Valid {
		if !header.Supported(v.Record.Cert) {
			s.log.Printf("run %s: %s anchor %q has an unsupported key type", res.RunID, v.Domain, v.Record.Label)
			invalid = append(invalid, v.Domain)
			continue
		}
		valid = append(valid, v.Domain)
		entries = append(entries, header.Entry{Domain: v.Domain, Cert: v.Record.Cert})
	}

	text, err := header.Generate(header.Collect(entries), s.HeaderNames(params))
	if err != nil {
		return render.BundleDocument{}, err
	}
	return render.NewBundleDocument(text, valid, invalid), nil
}

// HeaderNames applies the parameter rules to params: absent or oversized
// values take the service default, and identifiers that are not valid C
// names fall back as described by [header.Names.Normalize].
func (s *Service) HeaderNames(params Params) header.Names {
	return header.Names{
		Array:  ParamOrDefault(params.ArrayName, s.names.Array),
		Length: ParamOrDefault(params.LengthName, s.names.Length),
		Guard:  ParamOrDefault(params.GuardName, s.names.Guard),
	}.Normalize()
}

// ParamOrDefault returns value unless it is empty or longer than
// [MaxParamLength].
func ParamOrDefault(value, def string) string {
	if value == "" || len(value) > MaxParamLength {
		return def
	}
	return value
}

func newResponse(status int, body []byte) Response {
	return Response{
		Status: status,
		Headers: map[string]string{
			"Access-Control-Allow-Origin": "*",
			"Content-Type":                "application/json",
		},
		Body: body,
	}
}

var genericErrorBody = []byte(`{"message":"` + GenericErrorMessage + `"}`)

func errorResponse() Response {
	return newResponse(http.StatusInternalServerError, append([]byte(nil), genericErrorBody...))
}
