package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core/certificate"
)

const certificateColumns = `id, certificate_id, verification_code, student_id, course_id, instructor_id,
	completion_date, issue_date, qr_payload`

type certificateRow struct {
	ID               string      `db:"id"`
	CertificateID    string      `db:"certificate_id"`
	VerificationCode string      `db:"verification_code"`
	StudentID        string      `db:"student_id"`
	CourseID         string      `db:"course_id"`
	InstructorID     null.String `db:"instructor_id"`
	CompletionDate   time.Time   `db:"completion_date"`
	IssueDate        time.Time   `db:"issue_date"`
	QRPayload        string      `db:"qr_payload"`
}

func (r certificateRow) certificate() certificate.Certificate {
	return certificate.Certificate{
		ID:               r.ID,
		CertificateID:    r.CertificateID,
		VerificationCode: r.VerificationCode,
		StudentID:        r.StudentID,
		CourseID:         r.CourseID,
		InstructorID:     r.InstructorID.String,
		CompletionDate:   r.CompletionDate.UTC(),
		IssueDate:        r.IssueDate.UTC(),
		QRPayload:        r.QRPayload,
	}
}

type certificateRepository struct {
	db *sqlx.DB
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(db *sqlx.DB) certificate.Repository {
	return &certificateRepository{db: db}
}

func (repo *certificateRepository) CreateCertificate(ctx context.Context, cert certificate.Certificate) (certificate.Certificate, error) {
	cert.ID = uuid.New().String()
	row := certificateRow{
		ID:               cert.ID,
		CertificateID:    cert.CertificateID,
		VerificationCode: cert.VerificationCode,
		StudentID:        cert.StudentID,
		CourseID:         cert.CourseID,
		InstructorID:     null.NewString(cert.InstructorID, cert.InstructorID != ""),
		CompletionDate:   cert.CompletionDate.UTC(),
		IssueDate:        cert.IssueDate.UTC(),
		QRPayload:        cert.QRPayload,
	}
	q := `INSERT INTO certificate (` + certificateColumns + `)
		VALUES (:id, :certificate_id, :verification_code, :student_id, :course_id, :instructor_id,
			:completion_date, :issue_date, :qr_payload)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			switch constraint {
			case "certificate_student_course_key":
				return certificate.Certificate{}, certificate.ErrConflict
			case "certificate_certificate_id_key", "certificate_verification_code_key":
				return certificate.Certificate{}, certificate.ErrDuplicateCode
			}
		}
		return certificate.Certificate{}, errors.Wrap(err, "inserting certificate")
	}
	return row.certificate(), nil
}

func (repo *certificateRepository) GetCertificate(ctx context.Context, studentID, courseID string) (certificate.Certificate, error) {
	if !validIDs(studentID, courseID) {
		return certificate.Certificate{}, certificate.ErrNotFound
	}
	var row certificateRow
	q := `SELECT ` + certificateColumns + ` FROM certificate WHERE student_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &row, q, studentID, courseID); err != nil {
		return certificate.Certificate{}, trapNoRowsErr(err, certificate.ErrNotFound, "finding certificate")
	}
	return row.certificate(), nil
}

func (repo *certificateRepository) GetCertificateByCode(ctx context.Context, code string) (certificate.Certificate, error) {
	var row certificateRow
	q := `SELECT ` + certificateColumns + ` FROM certificate WHERE verification_code = $1`
	if err := repo.db.GetContext(ctx, &row, q, code); err != nil {
		return certificate.Certificate{}, trapNoRowsErr(err, certificate.ErrNotFound, "finding certificate by code")
	}
	return row.certificate(), nil
}

func (repo *certificateRepository) QueryCertificates(ctx context.Context, studentID string) ([]certificate.Certificate, error) {
	if !validIDs(studentID) {
		return []certificate.Certificate{}, nil
	}
	var rows []certificateRow
	q := `SELECT ` + certificateColumns + ` FROM certificate WHERE student_id = $1 ORDER BY issue_date DESC, id`
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying certificates")
	}
	certs := make([]certificate.Certificate, 0, len(rows))
	for _, r := range rows {
		certs = append(certs, r.certificate())
	}
	return certs, nil
}
