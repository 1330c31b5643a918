// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/cloudflare/cfssl/crypto/pkcs7"
	smallstep "github.com/smallstep/pkcs7"
)

var (
	// ErrInvalidPEMBlock indicates that the provided data does not contain a valid PEM block.
	ErrInvalidPEMBlock = errors.New("x509certs: invalid PEM block")

	// ErrInvalidBlockType indicates that the PEM block type is not the expected certificate type.
	ErrInvalidBlockType = errors.New("x509certs: invalid block type")

	// ErrParseCertificate indicates a failure to parse the certificate from the provided data.
	ErrParseCertificate = errors.New("x509certs: failed to parse certificate")

	// ErrParsePKCS7 indicates a failure to parse PKCS7 formatted data.
	ErrParsePKCS7 = errors.New("x509certs: failed to parse PKCS7 data")

	// ErrNoCertificates indicates that the input decoded cleanly but held no certificates.
	ErrNoCertificates = errors.New("x509certs: no certificates found")
)

// Fingerprint is a SHA-256 digest used as a lookup key for certificate names.
type Fingerprint [sha256.Size]byte

// String renders the fingerprint as lowercase hex.
func (f Fingerprint) String() string { return fmt.Sprintf("%x", f[:]) }

// SubjectFingerprint returns the digest of the certificate's raw subject.
func SubjectFingerprint(cert *x509.Certificate) Fingerprint {
	return sha256.Sum256(cert.RawSubject)
}

// IssuerFingerprint returns the digest of the certificate's raw issuer. It
// equals the [SubjectFingerprint] of the certificate that issued it.
func IssuerFingerprint(cert *x509.Certificate) Fingerprint {
	return sha256.Sum256(cert.RawIssuer)
}

// Label returns a short human-readable name for the certificate: the subject
// common name, else the first organization, else the first organizational
// unit, else the full subject string.
func Label(cert *x509.Certificate) string {
	switch {
	case cert.Subject.CommonName != "":
		return cert.Subject.CommonName
	case len(cert.Subject.Organization) > 0 && cert.Subject.Organization[0] != "":
		return cert.Subject.Organization[0]
	case len(cert.Subject.OrganizationalUnit) > 0 && cert.Subject.OrganizationalUnit[0] != "":
		return cert.Subject.OrganizationalUnit[0]
	default:
		return cert.Subject.String()
	}
}

// Certificate provides methods to decode and encode [X.509] certificates.
// It maintains internal configuration such as the certificate block type.
//
// [X.509]: https://en.wikipedia.org/wiki/X.509
type Certificate struct {
	certBlockType string
}

// New creates a new Certificate with default settings.
func New() *Certificate {
	return &Certificate{
		certBlockType: "CERTIFICATE",
	}
}

// IsPEM checks if the data is in PEM format.
func (c *Certificate) IsPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

// DecodeMultiple decodes every certificate in data. It accepts concatenated
// PEM blocks (non-certificate blocks such as trusted-certificate comments are
// skipped), concatenated DER, or a PKCS7 bundle.
func (c *Certificate) DecodeMultiple(data []byte) ([]*x509.Certificate, error) {
	if c.IsPEM(data) {
		var certs []*x509.Certificate

		for len(data) > 0 {
			block, rest := pem.Decode(data)
			if block == nil {
				break
			}
			data = rest

			if block.Type != c.certBlockType {
				continue
			}

			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrParseCertificate, err)
			}
			certs = append(certs, cert)
		}

		if len(certs) == 0 {
			return nil, ErrNoCertificates
		}
		return certs, nil
	}

	if certs, err := x509.ParseCertificates(data); err == nil {
		if len(certs) == 0 {
			return nil, ErrNoCertificates
		}
		return certs, nil
	}

	return c.decodePKCS7(data)
}

// Decode decodes a single certificate from data. When data holds a PKCS7
// bundle, as served by some AIA endpoints, the first certificate is returned.
func (c *Certificate) Decode(data []byte) (*x509.Certificate, error) {
	if c.IsPEM(data) {
		block, _ := pem.Decode(data)
		if block.Type != c.certBlockType {
			return nil, ErrInvalidBlockType
		}
		data = block.Bytes
	}

	cert, err := x509.ParseCertificate(data)
	if err == nil {
		return cert, nil
	}

	certs, err := c.decodePKCS7(data)
	if err != nil {
		return nil, err
	}
	return certs[0], nil
}

// decodePKCS7 extracts the certificates of a PKCS7 signed-data bundle.
// Cloudflare's parser is tried first; certificate-only bundles with an empty
// SignerInfos set (.p7b/.p7c files) trip it, so smallstep's parser handles
// those.
func (c *Certificate) decodePKCS7(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	if p, err := pkcs7.ParsePKCS7(data); err == nil {
		certs = p.Content.SignedData.Certificates
	} else {
		p, err := smallstep.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParsePKCS7, err)
		}
		certs = p.Certificates
	}

	if len(certs) == 0 {
		return nil, ErrNoCertificates
	}
	return certs, nil
}

// EncodePEM encodes a certificate to PEM format.
func (c *Certificate) EncodePEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  c.certBlockType,
		Bytes: cert.Raw,
	})
}

// EncodeMultiplePEM encodes multiple certificates to concatenated PEM.
func (c *Certificate) EncodeMultiplePEM(certs []*x509.Certificate) []byte {
	var data []byte
	for _, cert := range certs {
		data = append(data, c.EncodePEM(cert)...)
	}
	return data
}
