// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"
)

// encryptPEMBlock is the inverse of decryptPEMBlock, used to build fixtures.
func encryptPEMBlock(
	t *testing.T,
	blockType string,
	data, password []byte,
) *pem.Block {
	t.Helper()

	salt := make([]byte, 8)
	_, err := rand.Read(salt)
	require.NoError(t, err)

	key := pbkdf2.Key(password, salt, 10000, 32, sha3.New256)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)

	nonce := make([]byte, aesGcmNonce)
	_, err = rand.Read(nonce)
	require.NoError(t, err)

	bytes := append(salt, nonce...)
	bytes = append(bytes, gcm.Seal(nil, nonce, data, nil)...)
	return &pem.Block{Type: blockType, Bytes: bytes}
}

// generateTestCertificate creates a self-signed certificate for TLS tests,
// returning the PEM-encoded certificate and the DER-encoded private key.
func generateTestCertificate(t *testing.T) (certPEM, keyDER []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "airgauge-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(
		rand.Reader,
		&template,
		&template,
		&key.PublicKey,
		key,
	)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyDER, err = x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	return certPEM, keyDER
}

func TestDecryptPEMBlock(t *testing.T) {
	password := []byte("gas-baseline")
	plaintext := []byte("airgauge calibration key material")

	t.Run("ValidDecryption", func(t *testing.T) {
		block := encryptPEMBlock(t, "EC PRIVATE KEY", plaintext, password)

		decrypted, err := decryptPEMBlock(block, password)
		require.NoError(t, err)
		require.Equal(t, plaintext, decrypted)
	})

	t.Run("NilPEMBlock", func(t *testing.T) {
		_, err := decryptPEMBlock(nil, password)
		require.Error(t, err)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		block := encryptPEMBlock(t, "EC PRIVATE KEY", plaintext, password)

		_, err := decryptPEMBlock(block, []byte("particulates"))
		require.Error(t, err)
	})

	t.Run("TooShortCiphertext", func(t *testing.T) {
		// Salt is present but the remainder cannot hold an AES-GCM nonce.
		block := &pem.Block{Type: "EC PRIVATE KEY", Bytes: make([]byte, 12)}

		_, err := decryptPEMBlock(block, password)
		require.Error(t, err)
	})
}

func TestLoadX509KeyPairWithPassword(t *testing.T) {
	certPEM, keyDER := generateTestCertificate(t)
	password := []byte("gas-baseline")

	dir := t.TempDir()
	certFile := filepath.Join(dir, "client.pem")
	keyFile := filepath.Join(dir, "client.key")
	passwordFile := filepath.Join(dir, "client.pass")

	encrypted := encryptPEMBlock(t, "EC PRIVATE KEY", keyDER, password)
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(encrypted), 0o600))
	require.NoError(t, os.WriteFile(passwordFile, password, 0o600))

	cert, err := loadX509KeyPairWithPassword(certFile, keyFile, passwordFile)
	require.NoError(t, err)
	require.NotEmpty(t, cert.Certificate)

	// The certificate file does not contain the key password.
	_, err = loadX509KeyPairWithPassword(certFile, keyFile, certFile)
	require.Error(t, err)
}

func TestLoadCACertPool(t *testing.T) {
	certPEM, _ := generateTestCertificate(t)
	dir := t.TempDir()

	caFile := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o600))

	pool, err := loadCACertPool(caFile)
	require.NoError(t, err)
	require.NotNil(t, pool)

	junkFile := filepath.Join(dir, "junk.pem")
	require.NoError(t, os.WriteFile(junkFile, []byte("not a certificate"), 0o600))
	_, err = loadCACertPool(junkFile)
	require.Error(t, err)

	_, err = loadCACertPool(filepath.Join(dir, "missing.pem"))
	require.Error(t, err)
}
