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

// Package cipher enumerates the TLS cipher suites this reactor's TLS peer
// will offer.
package cipher

import "crypto/tls"

// Cipher identifies a TLS cipher suite.
type Cipher uint16

const (
	Unknown                                      Cipher = 0
	TLS_RSA_WITH_AES_128_GCM_SHA256                     = Cipher(tls.TLS_RSA_WITH_AES_128_GCM_SHA256) //nolint:revive,stylecheck
	TLS_RSA_WITH_AES_256_GCM_SHA384                     = Cipher(tls.TLS_RSA_WITH_AES_256_GCM_SHA384) //nolint:revive,stylecheck
	TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256                = Cipher(tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256)
	TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256              = Cipher(tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256)
	TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384                = Cipher(tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384)
	TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384              = Cipher(tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384)
	TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256          = Cipher(tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305)
	TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256        = Cipher(tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305)
	TLS_AES_128_GCM_SHA256                               = Cipher(tls.TLS_AES_128_GCM_SHA256)
	TLS_AES_256_GCM_SHA384                               = Cipher(tls.TLS_AES_256_GCM_SHA384)
	TLS_CHACHA20_POLY1305_SHA256                         = Cipher(tls.TLS_CHACHA20_POLY1305_SHA256)
)

// List returns the recommended AEAD cipher suites, TLS 1.3 first.
func List() []Cipher {
	return []Cipher{
		TLS_AES_128_GCM_SHA256,
		TLS_AES_256_GCM_SHA384,
		TLS_CHACHA20_POLY1305_SHA256,
		TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	}
}

func (c Cipher) TLS() uint16 {
	return uint16(c)
}

// Check reports whether d identifies one of the suites returned by List,
// plus the two legacy RSA suites kept for compatibility.
func Check(d uint16) bool {
	switch Cipher(d) {
	case TLS_RSA_WITH_AES_128_GCM_SHA256, TLS_RSA_WITH_AES_256_GCM_SHA384,
		TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384, TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256, TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
		TLS_AES_128_GCM_SHA256, TLS_AES_256_GCM_SHA384, TLS_CHACHA20_POLY1305_SHA256:
		return true
	default:
		return false
	}
}

// ToTLS converts a list of Cipher into the slice crypto/tls expects.
func ToTLS(list []Cipher) []uint16 {
	out := make([]uint16, 0, len(list))
	for _, c := range list {
		out = append(out, c.TLS())
	}
	return out
}
