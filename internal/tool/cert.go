package tool

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"

	"github.com/google/renameio/v2"
)

const certValidity = 10 // years

var ErrNoHostname = errors.New("certificate needs at least one hostname")

// GenerateTlsCertificate writes a self-signed server key and certificate.
// Every hostname (DNS name or IP) is added as a subject alternative name.
func GenerateTlsCertificate(organization string, commonName string, keyFilename string, certFilename string, hostnames []string) error {
	if len(hostnames) == 0 {
		return ErrNoHostname
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("unable to generate key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("unable to generate serial number: %w", err)
	}

	notBefore := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{organization},
			CommonName:   commonName,
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(certValidity, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
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
		return fmt.Errorf("unable to create certificate: %w", err)
	}

	keyDer, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("unable to encode key: %w", err)
	}
	if err := writePem(keyFilename, "EC PRIVATE KEY", keyDer, 0600); err != nil {
		return err
	}
	return writePem(certFilename, "CERTIFICATE", der, 0644)
}

func writePem(filename string, blockType string, der []byte, perm os.FileMode) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := renameio.WriteFile(filename, data, perm); err != nil {
		return fmt.Errorf("unable to write %s: %w", filename, err)
	}
	return nil
}
