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

// Package curves enumerates the elliptic curves this reactor's TLS peer will
// offer for ECDHE key exchange.
package curves

import "crypto/tls"

// Curves identifies an elliptic curve for TLS ECDHE cipher suites.
type Curves uint16

const (
	Unknown Curves = iota
	X25519         = Curves(tls.X25519)
	P256           = Curves(tls.CurveP256)
	P384           = Curves(tls.CurveP384)
	P521           = Curves(tls.CurveP521)
)

// List returns every supported curve, preferred first.
func List() []Curves {
	return []Curves{X25519, P256, P384, P521}
}

func (c Curves) TLS() tls.CurveID {
	return tls.CurveID(c)
}

// Check reports whether d identifies a supported curve.
func Check(d uint16) bool {
	switch Curves(d) {
	case X25519, P256, P384, P521:
		return true
	default:
		return false
	}
}

// ToTLS converts a list of Curves into the slice crypto/tls expects.
func ToTLS(list []Curves) []tls.CurveID {
	out := make([]tls.CurveID, 0, len(list))
	for _, c := range list {
		out = append(out, c.TLS())
	}
	return out
}
