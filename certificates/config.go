/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package certificates builds the *tls.Config used by the TLS peer and
// reactor, from in-memory certificate/key material plus curve, cipher,
// version and client-auth policy — never from certificate file acquisition,
// which is out of scope and left to the caller.
package certificates

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	libval "github.com/go-playground/validator/v10"

	tlsaut "github.com/printf033/mynet/certificates/auth"
	tlscrt "github.com/printf033/mynet/certificates/certs"
	tlscpr "github.com/printf033/mynet/certificates/cipher"
	tlscrv "github.com/printf033/mynet/certificates/curves"
	tlsvrs "github.com/printf033/mynet/certificates/tlsversion"
	liberr "github.com/printf033/mynet/errors"
)

// Config is the in-memory description of a TLS endpoint's policy.
type Config struct {
	CurveList  []tlscrv.Curves   `validate:"omitempty"`
	CipherList []tlscpr.Cipher   `validate:"omitempty"`
	Certs      []tlscrt.Certif   `validate:"omitempty"`
	VersionMin tlsvrs.Version    `validate:"required"`
	VersionMax tlsvrs.Version    `validate:"required"`
	AuthClient tlsaut.ClientAuth `validate:"omitempty"`

	// ClientCAPEM is an additional pinned trust anchor for outbound client
	// connections; when set, server verification is forced to PEER even if
	// AuthClient says otherwise. Empty means default system trust roots.
	ClientCAPEM string
}

// Validate checks field-level constraints and that VersionMin <= VersionMax.
// It does not inspect the certificate list; Server rejects an empty one.
func (c *Config) Validate() liberr.Error {
	err := liberr.ErrConfigMissingCert.Error()

	if e := libval.New().Struct(c); e != nil {
		err.Add(e)
	}

	if c.VersionMin > c.VersionMax {
		err.Add(fmt.Errorf("versionMin must be <= versionMax"))
	}

	if err.HasParent() {
		return err
	}
	return nil
}

// Server builds a server-side *tls.Config. It requires at least one
// certificate.
func (c *Config) Server() (*tls.Config, liberr.Error) {
	if len(c.Certs) == 0 {
		return nil, liberr.ErrConfigMissingCert.Error()
	}

	certs := make([]tls.Certificate, 0, len(c.Certs))
	for _, crt := range c.Certs {
		certs = append(certs, crt.TLS())
	}

	return &tls.Config{
		Certificates: certs,
		MinVersion:   c.VersionMin.TLS(),
		MaxVersion:   c.VersionMax.TLS(),
		CurvePreferences: func() []tls.CurveID {
			if len(c.CurveList) == 0 {
				return nil
			}
			return tlscrv.ToTLS(c.CurveList)
		}(),
		CipherSuites: func() []uint16 {
			if len(c.CipherList) == 0 {
				return nil
			}
			return tlscpr.ToTLS(c.CipherList)
		}(),
		ClientAuth: c.AuthClient.TLS(),
	}, nil
}

// Client builds a client-side *tls.Config. Verification mode is PEER when a
// pinned trust anchor is supplied, NONE (default system roots) otherwise.
func (c *Config) Client() (*tls.Config, liberr.Error) {
	cfg := &tls.Config{
		MinVersion: c.VersionMin.TLS(),
		MaxVersion: c.VersionMax.TLS(),
	}

	if c.ClientCAPEM != "" {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM([]byte(c.ClientCAPEM)) {
			return nil, liberr.ErrConfigMissingCert.Error(fmt.Errorf("invalid pinned certificate PEM"))
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}
