package certificate

import (
	"time"
)

// Certificate is the immutable proof that a student completed a course.
// CertificateID and VerificationCode are both globally unique; only VerificationCode is meant to be shared.
type Certificate struct {
	ID               string    `json:"id"`
	CertificateID    string    `json:"certificate_id"`
	VerificationCode string    `json:"verification_code"`
	StudentID        string    `json:"student_id"`
	CourseID         string    `json:"course_id"`
	InstructorID     string    `json:"instructor_id"`
	CompletionDate   time.Time `json:"completion_date"` // UTC
	IssueDate        time.Time `json:"issue_date"`      // UTC
	QRPayload        string    `json:"qr_payload"`
}

// PublicView is what anyone holding a verification code may see. No contact details, no internal ids.
type PublicView struct {
	CertificateID    string    `json:"certificate_id"`
	StudentName      string    `json:"student_name"`
	CourseTitle      string    `json:"course_title"`
	Category         string    `json:"category"`
	InstructorName   string    `json:"instructor_name"`
	CompletionDate   time.Time `json:"completion_date"`
	IssueDate        time.Time `json:"issue_date"`
	VerificationCode string    `json:"verification_code"`
	Valid            bool      `json:"valid"`
}

type IssueRequest struct {
	StudentID      string
	CourseID       string
	InstructorID   string
	CompletionDate time.Time
}
