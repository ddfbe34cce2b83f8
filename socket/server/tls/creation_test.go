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

package tls_test

import (
	tls "github.com/printf033/mynet/socket/server/tls"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TLS Server Creation", func() {
	Context("with valid configuration", func() {
		It("should create server with minimal configuration", func() {
			ip, port := getTestAddr()
			cfg := createDefaultConfig(ip, port)
			srv, err := tls.New(echoHandler, cfg)

			Expect(err).To(BeNil())
			Expect(srv).ToNot(BeNil())
			Expect(srv.IsRunning()).To(BeFalse())
			Expect(srv.IsGone()).To(BeTrue())
			Expect(srv.OpenConnections()).To(Equal(int64(0)))
		})

		It("should default to Reflect when no process is given", func() {
			ip, port := getTestAddr()
			cfg := createDefaultConfig(ip, port)
			srv, err := tls.New(nil, cfg)

			Expect(err).To(BeNil())
			Expect(srv).ToNot(BeNil())
		})
	})

	Context("with invalid configuration", func() {
		It("should fail with empty bind address", func() {
			cfg := createDefaultConfig("", 0)
			srv, err := tls.New(echoHandler, cfg)

			Expect(err).ToNot(BeNil())
			Expect(srv).To(BeNil())
		})

		It("should fail with zero backlog", func() {
			ip, port := getTestAddr()
			cfg := createDefaultConfig(ip, port)
			cfg.Backlog = 0
			srv, err := tls.New(echoHandler, cfg)

			Expect(err).ToNot(BeNil())
			Expect(srv).To(BeNil())
		})

		It("should fail when no TLS config is supplied", func() {
			ip, port := getTestAddr()
			cfg := createDefaultConfig(ip, port)
			cfg.TLS = nil
			srv, err := tls.New(echoHandler, cfg)

			Expect(err).ToNot(BeNil())
			Expect(srv).To(BeNil())
		})
	})
})
