package certificates_test

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"time"

	"github.com/printf033/mynet/certificates"
	tlscrt "github.com/printf033/mynet/certificates/certs"
	tlsvrs "github.com/printf033/mynet/certificates/tlsversion"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func genPairPEM() (crt string, key string) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	Expect(err).ToNot(HaveOccurred())

	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	Expect(err).ToNot(HaveOccurred())

	bufCrt := bytes.NewBuffer(nil)
	Expect(pem.Encode(bufCrt, &pem.Block{Type: "CERTIFICATE", Bytes: der})).To(Succeed())

	pk, err := x509.MarshalPKCS8PrivateKey(priv)
	Expect(err).ToNot(HaveOccurred())
	bufKey := bytes.NewBuffer(nil)
	Expect(pem.Encode(bufKey, &pem.Block{Type: "PRIVATE KEY", Bytes: pk})).To(Succeed())

	return bufCrt.String(), bufKey.String()
}

var _ = Describe("Config", func() {
	It("rejects VersionMin > VersionMax", func() {
		cfg := &certificates.Config{
			VersionMin: tlsvrs.VersionTLS13,
			VersionMax: tlsvrs.VersionTLS12,
		}
		Expect(cfg.Validate()).ToNot(BeNil())
	})

	It("rejects Server() with no certificates", func() {
		cfg := &certificates.Config{
			VersionMin: tlsvrs.VersionTLS12,
			VersionMax: tlsvrs.VersionTLS13,
		}
		_, err := cfg.Server()
		Expect(err).ToNot(BeNil())
	})

	It("builds a server tls.Config from a valid certificate pair", func() {
		crt, key := genPairPEM()
		c, err := tlscrt.ParsePair(key, crt)
		Expect(err).ToNot(HaveOccurred())

		cfg := &certificates.Config{
			Certs:      []tlscrt.Certif{c},
			VersionMin: tlsvrs.VersionTLS12,
			VersionMax: tlsvrs.VersionTLS13,
		}
		Expect(cfg.Validate()).To(BeNil())

		tlsCfg, lerr := cfg.Server()
		Expect(lerr).To(BeNil())
		Expect(tlsCfg.Certificates).To(HaveLen(1))
		Expect(tlsCfg.MinVersion).To(BeEquivalentTo(tlsvrs.VersionTLS12))
		Expect(tlsCfg.MaxVersion).To(BeEquivalentTo(tlsvrs.VersionTLS13))
	})

	It("defaults Client() to system roots when ClientCAPEM is empty", func() {
		cfg := &certificates.Config{
			VersionMin: tlsvrs.VersionTLS12,
			VersionMax: tlsvrs.VersionTLS13,
		}
		tlsCfg, err := cfg.Client()
		Expect(err).To(BeNil())
		Expect(tlsCfg.RootCAs).To(BeNil())
	})

	It("pins Client() RootCAs when ClientCAPEM is set", func() {
		crt, _ := genPairPEM()
		cfg := &certificates.Config{
			VersionMin:  tlsvrs.VersionTLS12,
			VersionMax:  tlsvrs.VersionTLS13,
			ClientCAPEM: crt,
		}
		tlsCfg, err := cfg.Client()
		Expect(err).To(BeNil())
		Expect(tlsCfg.RootCAs).ToNot(BeNil())
	})

	It("rejects Client() with a malformed pinned PEM", func() {
		cfg := &certificates.Config{
			VersionMin:  tlsvrs.VersionTLS12,
			VersionMax:  tlsvrs.VersionTLS13,
			ClientCAPEM: "not a pem",
		}
		_, err := cfg.Client()
		Expect(err).ToNot(BeNil())
	})
})
