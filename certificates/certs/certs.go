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

// Package certs parses PEM-encoded certificate/key pairs supplied in memory.
// Certificate file acquisition is out of scope; callers read files and pass
// their contents here.
package certs

import "crypto/tls"

// Certif holds one parsed key/certificate pair.
type Certif struct {
	c tls.Certificate
}

// ParsePair parses a PEM private key and a PEM certificate (or chain) held
// in memory, checking they match.
func ParsePair(key, crt string) (Certif, error) {
	c, err := tls.X509KeyPair([]byte(crt), []byte(key))
	if err != nil {
		return Certif{}, err
	}
	return Certif{c: c}, nil
}

// TLS returns the stdlib certificate for use in a tls.Config.
func (c Certif) TLS() tls.Certificate {
	return c.c
}
