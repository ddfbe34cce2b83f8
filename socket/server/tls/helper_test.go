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
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"math/big"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/printf033/mynet/certificates"
	tlsaut "github.com/printf033/mynet/certificates/auth"
	tlscrt "github.com/printf033/mynet/certificates/certs"
	tlsvrs "github.com/printf033/mynet/certificates/tlsversion"
	"github.com/printf033/mynet/handler"
	sckcfg "github.com/printf033/mynet/socket/config"
	scktls "github.com/printf033/mynet/socket/server/tls"

	. "github.com/onsi/gomega"
)

var testPort int32 = 19500

var echoHandler handler.Process = handler.Reflect

var srvTLSCfg *certificates.Config

func initTLSConfig() {
	crtPEM, keyPEM, err := genSelfSignedPair()
	Expect(err).ToNot(HaveOccurred())

	crt, err := tlscrt.ParsePair(keyPEM, crtPEM)
	Expect(err).ToNot(HaveOccurred())

	srvTLSCfg = &certificates.Config{
		Certs:      []tlscrt.Certif{crt},
		VersionMin: tlsvrs.VersionTLS12,
		VersionMax: tlsvrs.VersionTLS13,
		AuthClient: tlsaut.NoClientCert,
	}
}

func genSelfSignedPair() (crtPEM, keyPEM string, err error) {
	prv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", err
	}

	ser, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return "", "", err
	}

	tpl := x509.Certificate{
		SerialNumber:          ser,
		Subject:               pkix.Name{CommonName: "localhost"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, &tpl, &tpl, &prv.PublicKey, prv)
	if err != nil {
		return "", "", err
	}

	cbuf := &bytes.Buffer{}
	if err = pem.Encode(cbuf, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
		return "", "", err
	}

	keyDER, err := x509.MarshalECPrivateKey(prv)
	if err != nil {
		return "", "", err
	}
	kbuf := &bytes.Buffer{}
	if err = pem.Encode(kbuf, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}); err != nil {
		return "", "", err
	}

	return cbuf.String(), kbuf.String(), nil
}

func getTestAddr() (string, int) {
	port := int(atomic.AddInt32(&testPort, 1))
	return "127.0.0.1", port
}

func createDefaultConfig(ip string, port int) sckcfg.ConfigServer {
	return sckcfg.ConfigServer{
		BindIP:           ip,
		Port:             port,
		Backlog:          16,
		PoolSize:         64,
		ReceiveTimeout:   time.Second,
		HandshakeTimeout: 2 * time.Second,
		TLS:              srvTLSCfg,
	}
}

func startServerInBackground(c context.Context, srv *scktls.Server) {
	go func() { _ = srv.Listen(c) }()
}

func waitForServer(srv *scktls.Server, timeout time.Duration) {
	Eventually(func() bool { return srv.IsRunning() }, timeout, 10*time.Millisecond).Should(BeTrue())
}

func waitForServerStopped(srv *scktls.Server, timeout time.Duration) {
	Eventually(func() bool { return !srv.IsRunning() }, timeout, 10*time.Millisecond).Should(BeTrue())
}

func dialTLS(ip string, port int) (*tls.Conn, error) {
	return tls.DialWithDialer(&net.Dialer{Timeout: 2 * time.Second}, "tcp", netAddr(ip, port), &tls.Config{InsecureSkipVerify: true})
}

func waitForServerAcceptingConnections(ip string, port int, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for {
		if c, e := dialTLS(ip, port); e == nil {
			_ = c.Close()
			return
		}
		if time.Now().After(deadline) {
			Fail("timeout waiting for TLS server to accept connections")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func connectToServer(ip string, port int) net.Conn {
	con, err := dialTLS(ip, port)
	Expect(err).ToNot(HaveOccurred())
	return con
}

func sendAndReceive(con net.Conn, data []byte) []byte {
	n, err := con.Write(data)
	Expect(err).ToNot(HaveOccurred())
	Expect(n).To(Equal(len(data)))

	buf := make([]byte, len(data))
	n, err = io.ReadFull(con, buf)
	Expect(err).ToNot(HaveOccurred())
	Expect(n).To(Equal(len(data)))
	return buf
}

func netAddr(ip string, port int) string {
	return net.JoinHostPort(ip, strconv.Itoa(port))
}
