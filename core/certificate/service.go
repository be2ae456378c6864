package certificate

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/completion"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/user"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("certificate not found")
	ErrNotEligible = core.NewClientError("course not completed yet")

	// ErrConflict is returned by a Repository when a certificate already exists for the (student, course) pair.
	ErrConflict = errors.New("certificate already issued for this student and course")
	// ErrDuplicateCode is returned by a Repository when a generated identifier is already taken.
	ErrDuplicateCode = errors.New("certificate identifier already taken")
)

const (
	defaultMaxAttempts = 5
	verifyPath         = "/verify-certificate/"
	issuedTemplate     = "certificate_issued"
)

type (
	Repository interface {
		// CreateCertificate fails with ErrConflict or ErrDuplicateCode on unique constraint violations.
		CreateCertificate(ctx context.Context, cert Certificate) (Certificate, error)
		GetCertificate(ctx context.Context, studentID, courseID string) (Certificate, error)
		GetCertificateByCode(ctx context.Context, code string) (Certificate, error)
		// QueryCertificates returns the certificates of a student, newest first.
		QueryCertificates(ctx context.Context, studentID string) ([]Certificate, error)
	}

	// Service issues certificates, at most one per (student, course), and verifies them publicly.
	Service struct {
		repo        Repository
		users       user.Repository
		courses     course.Repository
		enrollments enrollment.Repository
		mailSvc     core.EmailService
		logger      core.Logger
		baseURL     string
		maxAttempts int
		now         func() time.Time
	}
)

func NewService(
	repo Repository,
	users user.Repository,
	courses course.Repository,
	enrollments enrollment.Repository,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	maxAttempts := conf.Certificate.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Service{
		repo:        repo,
		users:       users,
		courses:     courses,
		enrollments: enrollments,
		mailSvc:     mailSvc,
		logger:      logger,
		baseURL:     conf.FrontendBaseURL,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Issue returns the certificate of (req.StudentID, req.CourseID), creating it if needed.
// created is false when the certificate already existed.
//
// Issue does not check that the course was completed: callers do.
// Concurrent calls for one pair converge on a single certificate through the store's unique constraint.
func (svc *Service) Issue(ctx context.Context, req IssueRequest) (cert Certificate, created bool, err error) {
	if err = vala.BeginValidation().Validate(
		vala.StringNotEmpty(req.StudentID, "studentID"),
		vala.StringNotEmpty(req.CourseID, "courseID"),
	).Check(); err != nil {
		return Certificate{}, false, core.NewValidationError(err)
	}

	if cert, err = svc.repo.GetCertificate(ctx, req.StudentID, req.CourseID); err == nil {
		return cert, false, nil
	} else if errors.Cause(err) != ErrNotFound {
		return Certificate{}, false, errors.Wrap(err, "finding certificate")
	}

	now := svc.now()
	completionDate := req.CompletionDate.UTC()
	if req.CompletionDate.IsZero() {
		completionDate = now
	}

	for attempt := 1; ; attempt++ {
		cert, err = svc.newCertificate(req, completionDate, now)
		if err != nil {
			return Certificate{}, false, errors.Wrap(err, "generating certificate identifiers")
		}

		cert, err = svc.repo.CreateCertificate(ctx, cert)
		switch errors.Cause(err) {
		case nil:
			svc.sendIssuedMail(ctx, cert)
			return cert, true, nil
		case ErrConflict:
			// lost the race: the other certificate wins
			if cert, err = svc.repo.GetCertificate(ctx, req.StudentID, req.CourseID); err != nil {
				return Certificate{}, false, errors.Wrap(err, "finding conflicting certificate")
			}
			return cert, false, nil
		case ErrDuplicateCode:
			if attempt >= svc.maxAttempts {
				return Certificate{}, false, errors.Wrapf(err, "creating certificate after %d attempts", attempt)
			}
		default:
			return Certificate{}, false, errors.Wrap(err, "creating certificate")
		}
	}
}

func (svc *Service) newCertificate(req IssueRequest, completionDate, now time.Time) (Certificate, error) {
	certID, err := newCertificateID(now)
	if err != nil {
		return Certificate{}, err
	}
	code, err := newVerificationCode()
	if err != nil {
		return Certificate{}, err
	}
	return Certificate{
		CertificateID:    certID,
		VerificationCode: code,
		StudentID:        req.StudentID,
		CourseID:         req.CourseID,
		InstructorID:     req.InstructorID,
		CompletionDate:   completionDate,
		IssueDate:        now,
		QRPayload:        svc.VerificationURL(code),
	}, nil
}

// VerificationURL is the public page where a certificate can be checked. It is also the QR code payload.
func (svc *Service) VerificationURL(code string) string {
	return svc.baseURL + verifyPath + code
}

// IssueForEnrollment issues the certificate of a completed enrollment.
// The course instructor and the enrollment completion date are put on the certificate.
func (svc *Service) IssueForEnrollment(ctx context.Context, enr enrollment.Enrollment) (Certificate, bool, error) {
	crs, err := svc.courses.GetCourse(ctx, enr.CourseID)
	if err != nil {
		return Certificate{}, false, errors.Wrap(err, "finding course")
	}
	req := IssueRequest{
		StudentID:    enr.StudentID,
		CourseID:     enr.CourseID,
		InstructorID: crs.InstructorID,
	}
	if enr.CompletedAt != nil {
		req.CompletionDate = *enr.CompletedAt
	}
	return svc.Issue(ctx, req)
}

// IssueIfEligible issues the certificate of a student for a course they completed.
// It fails with enrollment.ErrNotEnrolled or ErrNotEligible otherwise.
func (svc *Service) IssueIfEligible(ctx context.Context, studentID, courseID string) (Certificate, bool, error) {
	if _, err := svc.courses.GetCourse(ctx, courseID); err != nil {
		return Certificate{}, false, err
	}
	enr, err := svc.enrollments.GetEnrollment(ctx, studentID, courseID)
	if err != nil {
		return Certificate{}, false, err
	}
	if enr.Status != completion.StatusCompleted {
		return Certificate{}, false, ErrNotEligible
	}
	return svc.IssueForEnrollment(ctx, enr)
}

// VerifyByCode looks a certificate up by its verification code. Unknown codes yield ErrNotFound.
func (svc *Service) VerifyByCode(ctx context.Context, code string) (PublicView, error) {
	code = core.CleanString(code)
	if code == "" {
		return PublicView{}, ErrNotFound
	}

	cert, err := svc.repo.GetCertificateByCode(ctx, code)
	if err != nil {
		return PublicView{}, err
	}

	view := PublicView{
		CertificateID:    cert.CertificateID,
		CompletionDate:   cert.CompletionDate,
		IssueDate:        cert.IssueDate,
		VerificationCode: cert.VerificationCode,
		Valid:            true,
	}
	if view.StudentName, err = svc.userName(ctx, cert.StudentID); err != nil {
		return PublicView{}, err
	}
	if view.InstructorName, err = svc.userName(ctx, cert.InstructorID); err != nil {
		return PublicView{}, err
	}
	crs, err := svc.courses.GetCourse(ctx, cert.CourseID)
	switch {
	case err == nil:
		view.CourseTitle = crs.Title
		view.Category = crs.Category
	case !core.IsNotFound(err):
		return PublicView{}, errors.Wrap(err, "finding course")
	}
	return view, nil
}

// userName is empty for unknown users.
func (svc *Service) userName(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	usr, err := svc.users.GetUser(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return "", nil
		}
		return "", errors.Wrap(err, "finding user")
	}
	return usr.Name, nil
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID string) ([]Certificate, error) {
	return svc.repo.QueryCertificates(ctx, studentID)
}

// Reconcile issues the certificates of completed enrollments that have none, eg: after a failed inline issuance.
// It returns the number of certificates created. Failures are logged and do not stop the run.
func (svc *Service) Reconcile(ctx context.Context) (int, error) {
	enrollments, err := svc.enrollments.QueryEnrollments(ctx, enrollment.Filter{Status: completion.StatusCompleted})
	if err != nil {
		return 0, errors.Wrap(err, "querying completed enrollments")
	}

	var count int
	for _, enr := range enrollments {
		if err = ctx.Err(); err != nil {
			return count, err
		}
		_, err = svc.repo.GetCertificate(ctx, enr.StudentID, enr.CourseID)
		if err == nil {
			continue
		}
		if errors.Cause(err) != ErrNotFound {
			svc.logger.Error(fmt.Sprintf("reconcile: finding certificate: %v", err), err)
			continue
		}
		_, created, err := svc.IssueForEnrollment(ctx, enr)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("reconcile: issuing certificate: %v", err), err)
			continue
		}
		if created {
			count++
		}
	}
	return count, nil
}

// sendIssuedMail notifies the student. Failures are logged only.
func (svc *Service) sendIssuedMail(ctx context.Context, cert Certificate) {
	if svc.mailSvc == nil {
		return
	}
	usr, err := svc.users.GetUser(ctx, cert.StudentID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("certificate mail: finding student: %v", err), err)
		return
	}
	if usr.Email == "" {
		return
	}
	var title string
	if crs, err := svc.courses.GetCourse(ctx, cert.CourseID); err == nil {
		title = crs.Title
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your certificate is ready",
		TemplateName: issuedTemplate,
		TemplateData: map[string]interface{}{
			"Name":             usr.Name,
			"CourseTitle":      title,
			"CertificateID":    cert.CertificateID,
			"VerificationCode": cert.VerificationCode,
			"VerificationURL":  cert.QRPayload,
		},
	})
}
