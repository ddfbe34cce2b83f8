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

//go:build !linux

package reactor

import (
	liberr "github.com/printf033/mynet/errors"
	"github.com/printf033/mynet/handler"
	"github.com/printf033/mynet/logger"
)

// ReadinessConfig mirrors the Linux build's configuration surface so
// callers compile on every platform; the reactor core targets Linux.
type ReadinessConfig struct {
	PoolSize int
	Process  handler.Process
	Logger   *logger.Logger
}

// Readiness on non-Linux platforms only reports the platform mismatch.
type Readiness struct{}

func NewReadiness(accept Acceptor, cfg ReadinessConfig) (*Readiness, liberr.Error) {
	return nil, liberr.ErrResourceEpoll.Error()
}

func (r *Readiness) Stop()                {}
func (r *Readiness) Run() liberr.Error    { return liberr.ErrResourceEpoll.Error() }
func (r *Readiness) OpenConnections() int { return 0 }
