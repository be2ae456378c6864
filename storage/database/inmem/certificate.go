package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core/certificate"
)

type certificateRepository struct {
	db *certificateTable
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(db *DB) certificate.Repository {
	return &certificateRepository{db: db.certificate}
}

func (repo *certificateRepository) CreateCertificate(ctx context.Context, cert certificate.Certificate) (certificate.Certificate, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := pairKey{studentID: cert.StudentID, courseID: cert.CourseID}
	if _, ok := repo.db.table[key]; ok {
		return certificate.Certificate{}, certificate.ErrConflict
	}
	for _, c := range repo.db.table {
		if c.CertificateID == cert.CertificateID || c.VerificationCode == cert.VerificationCode {
			return certificate.Certificate{}, certificate.ErrDuplicateCode
		}
	}
	cert.ID = uuid.New().String()
	repo.db.table[key] = &cert
	return cert, nil
}

func (repo *certificateRepository) GetCertificate(ctx context.Context, studentID, courseID string) (certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cert, ok := repo.db.table[pairKey{studentID: studentID, courseID: courseID}]; ok {
		return *cert, nil
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}

func (repo *certificateRepository) GetCertificateByCode(ctx context.Context, code string) (certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, cert := range repo.db.table {
		if cert.VerificationCode == code {
			return *cert, nil
		}
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}

func (repo *certificateRepository) QueryCertificates(ctx context.Context, studentID string) ([]certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	certs := make([]certificate.Certificate, 0)
	for _, cert := range repo.db.table {
		if cert.StudentID == studentID {
			certs = append(certs, *cert)
		}
	}
	sort.Slice(certs, func(i, j int) bool {
		if certs[i].IssueDate.Equal(certs[j].IssueDate) {
			return certs[i].CertificateID > certs[j].CertificateID
		}
		return certs[i].IssueDate.After(certs[j].IssueDate)
	})
	return certs, nil
}
