package tool

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// EnsureTlsCertificate generates a self-signed pair unless both files
// already exist.
func EnsureTlsCertificate(organization, commonName, keyFilename, certFilename string, hostnames []string) error {
	existKey, err := IsFileExists(keyFilename)
	if err != nil {
		return err
	}
	existCert, err := IsFileExists(certFilename)
	if err != nil {
		return err
	}
	if existKey && existCert {
		return nil
	}
	logrus.Info("Missing cert and key files, trying to generate them...")
	if err = GenerateTlsCertificate(organization, commonName, keyFilename, certFilename, hostnames); err != nil {
		return err
	}
	logrus.Info("Self-signed cert and key files generated")
	return nil
}

// GenerateTlsCertificate writes a P-256 key and a ten-year self-signed
// server certificate for hostnames (names or IPs).
func GenerateTlsCertificate(organization, commonName, keyFilename, certFilename string, hostnames []string) error {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}
	if err = writePem(keyFilename, 0600, func() (*pem.Block, error) {
		b, err := x509.MarshalECPrivateKey(key)
		return &pem.Block{Type: "EC PRIVATE KEY", Bytes: b}, err
	}); err != nil {
		return err
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return err
	}
	notBefore := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{organization},
			CommonName:   commonName,
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range hostnames {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return err
	}
	return writePem(certFilename, 0644, func() (*pem.Block, error) {
		return &pem.Block{Type: "CERTIFICATE", Bytes: der}, nil
	})
}

func writePem(filename string, perm os.FileMode, block func() (*pem.Block, error)) error {
	b, err := block()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, pem.EncodeToMemory(b), perm)
}
