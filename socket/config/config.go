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

// Package config carries the startup arguments of spec.md §6: bind
// address, backlog, reactor pool sizing, and the optional TLS policy a
// server or client runs with. Structs here are validated with
// go-playground/validator/v10 the same way certificates.Config is.
package config

import (
	"time"

	libval "github.com/go-playground/validator/v10"

	"github.com/printf033/mynet/certificates"
	liberr "github.com/printf033/mynet/errors"
)

// ConfigServer describes one listening endpoint.
type ConfigServer struct {
	BindIP  string `validate:"required,ip4_addr"`
	Port    int    `validate:"gte=0,lte=65535"`
	Backlog int    `validate:"gte=1"`

	// PoolSize bounds how many connections a single reactor (Readiness or
	// Worker) can hold concurrently.
	PoolSize int `validate:"gte=1"`

	// Workers, QueueCapacity and QueueRetries describe the Dispatcher/Worker
	// arrangement (a ring.MPMC[reactor.Conn] of QueueCapacity slots, and
	// QueueRetries scheduler yields before a full queue counts as
	// saturated). They are validated here but not read by
	// socket/server/tcp or socket/server/tls, which always run a single
	// Readiness reactor.
	Workers int `validate:"gte=0"`

	QueueCapacity int `validate:"omitempty,gte=2"`

	QueueRetries int `validate:"omitempty,gte=0"`

	ReceiveTimeout time.Duration `validate:"omitempty,gte=0"`

	// HandshakeTimeout bounds a TLS server handshake; zero disables the
	// bound. Ignored when TLS is nil.
	HandshakeTimeout time.Duration `validate:"omitempty,gte=0"`

	// TLS, when non-nil, makes this a TLS-terminating endpoint
	// (certificates.Config.Server builds the *tls.Config).
	TLS *certificates.Config `validate:"omitempty"`
}

// Validate checks field-level constraints and, when TLS is set, defers
// to certificates.Config.Validate for the certificate/version checks.
func (c *ConfigServer) Validate() liberr.Error {
	err := liberr.ErrConfigInvalidAddress.Error()

	if e := libval.New().Struct(c); e != nil {
		err.Add(e)
	}
	if c.TLS != nil {
		if e := c.TLS.Validate(); e != nil {
			err.Add(e)
		}
	}

	if err.HasParent() {
		return err
	}
	return nil
}

// ConfigClient describes one outbound connection attempt.
type ConfigClient struct {
	RemoteIP string        `validate:"required,ip4_addr"`
	Port     int           `validate:"gte=1,lte=65535"`
	Timeout  time.Duration `validate:"omitempty,gte=0"`

	// TLS, when non-nil, makes this a TLS client connection
	// (certificates.Config.Client builds the *tls.Config, including the
	// optional pinned trust anchor of ClientCAPEM).
	TLS *certificates.Config `validate:"omitempty"`
}

// Validate checks field-level constraints and, when TLS is set, defers
// to certificates.Config.Validate.
func (c *ConfigClient) Validate() liberr.Error {
	err := liberr.ErrConfigInvalidAddress.Error()

	if e := libval.New().Struct(c); e != nil {
		err.Add(e)
	}
	if c.TLS != nil {
		if e := c.TLS.Validate(); e != nil {
			err.Add(e)
		}
	}

	if err.HasParent() {
		return err
	}
	return nil
}
