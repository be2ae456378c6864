package certificate

import (
	"crypto/rand"
	"encoding/base32"
	"io"
	"time"

	"github.com/pkg/errors"
)

const (
	certIDPrefix   = "CERT-"
	certIDRandLen  = 10 // base32 chars: 50 bits
	vCodePrefix    = "VC-"
	vCodeRandBytes = 10 // 80 bits, 16 base32 chars
)

var (
	randReader io.Reader = rand.Reader // mockable

	codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)
)

func randomString(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}
	return codeEncoding.EncodeToString(b), nil
}

// newCertificateID returns CERT-<yyyymmdd>-<random>: legible and sortable by issue date.
func newCertificateID(issued time.Time) (string, error) {
	s, err := randomString(7)
	if err != nil {
		return "", err
	}
	return certIDPrefix + issued.UTC().Format("20060102") + "-" + s[:certIDRandLen], nil
}

// newVerificationCode returns VC-<random>, unrelated to the certificate id.
func newVerificationCode() (string, error) {
	s, err := randomString(vCodeRandBytes)
	if err != nil {
		return "", err
	}
	return vCodePrefix + s, nil
}
