package services

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/avast/retry-go"

	"github.com/SAP-F-2025/elearning-service/internal/auth"
	"github.com/SAP-F-2025/elearning-service/internal/events"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

// CodeAttempts bounds the generate-and-insert loop for verification codes
const CodeAttempts = 100

type CertificationService interface {
	ResourceService[models.Certification, models.CreateCertificationRequest, models.UpdateCertificationRequest]
	// Verify looks a certificate up by its public verification code
	Verify(ctx context.Context, code string) (*models.Certification, error)
}

type certificationService struct {
	*crudService[models.Certification, models.CreateCertificationRequest, models.UpdateCertificationRequest]
	repo     repositories.Repository
	events   events.Publisher
	generate func() (string, error)
}

func NewCertificationService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.Publisher) CertificationService {
	s := &certificationService{
		repo:   repo,
		events: publisher,
		generate: func() (string, error) {
			return auth.GenerateDigits(models.VerificationCodeLength)
		},
	}
	s.crudService = newCRUDService(policy.Certifications, repo.Certification(), validator, logger, crudHooks[models.Certification, models.CreateCertificationRequest, models.UpdateCertificationRequest]{
		build:     s.build,
		insert:    s.insert,
		patch:     s.patch,
		duplicate: s.duplicate,
		created:   s.created,
	})
	return s
}

func errDuplicateCertification() error {
	return duplicate("DUPLICATE_CERTIFICATION", "This user already holds this certificate for the course.")
}

func validCode(code string) bool {
	if len(code) != models.VerificationCodeLength {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (s *certificationService) build(ctx context.Context, _ *policy.Actor, req *models.CreateCertificationRequest) (*models.Certification, policy.Owned, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, req.CourseID)
	if err != nil {
		return nil, nil, storeError(policy.Courses, req.CourseID, "get course", err)
	}
	if _, err := s.repo.User().GetByID(ctx, nil, req.UserID); err != nil {
		return nil, nil, storeError(policy.Users, req.UserID, "get user", err)
	}

	enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, nil, req.UserID, course.ID)
	if err != nil {
		return nil, nil, dbError("check enrollment", err)
	}
	if !enrolled {
		return nil, nil, NewAppError(http.StatusForbidden, "NOT_ENROLLED", "User must be enrolled in the course to receive a certificate.")
	}

	cert := &models.Certification{
		UserID:          req.UserID,
		CourseID:        course.ID,
		CertificateType: req.CertificateType,
		Title:           req.Title,
		Description:     req.Description,
	}
	if req.VerificationCode != nil {
		code := strings.TrimSpace(*req.VerificationCode)
		if !validCode(code) {
			return nil, nil, badRequest("INVALID_VERIFICATION_CODE", "Verification code must be exactly 10 digits.")
		}
		cert.VerificationCode = code
	}
	if req.IsVerified != nil {
		cert.IsVerified = *req.IsVerified
	}
	return cert, course, nil
}

func (s *certificationService) createOnce(ctx context.Context, cert *models.Certification) error {
	created, err := s.repo.Certification().CreateUnique(ctx, nil, cert, "user_id", "course_id", "certificate_type")
	if err != nil {
		return err
	}
	if !created {
		return errDuplicateCertification()
	}
	return nil
}

// insert keeps a client-supplied code as is. Otherwise it draws random codes
// until one is free.
func (s *certificationService) insert(ctx context.Context, cert *models.Certification) error {
	if cert.VerificationCode != "" {
		return s.createOnce(ctx, cert)
	}

	err := retry.Do(
		func() error {
			code, err := s.generate()
			if err != nil {
				return err
			}
			cert.ID = 0
			cert.VerificationCode = code
			return s.createOnce(ctx, cert)
		},
		retry.Context(ctx),
		retry.Attempts(CodeAttempts),
		retry.Delay(0),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return repositories.DuplicateOn(err, "verification_code")
		}),
	)
	if repositories.DuplicateOn(err, "verification_code") {
		s.logger.Error("Verification code space exhausted", "attempts", CodeAttempts)
		return NewAppError(http.StatusInternalServerError, "VERIFICATION_CODE_GENERATION_FAILED", "Could not generate a unique verification code.")
	}
	return err
}

func (s *certificationService) duplicate(err error) error {
	if repositories.DuplicateOn(err, "verification_code") {
		return duplicate("DUPLICATE_VERIFICATION_CODE", "A certificate with this verification code already exists.")
	}
	return errDuplicateCertification()
}

func (s *certificationService) patch(_ context.Context, _ *policy.Actor, _ *models.Certification, req *models.UpdateCertificationRequest) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	setIf(fields, "title", req.Title)
	setIf(fields, "description", req.Description)
	setIf(fields, "is_verified", req.IsVerified)
	return fields, nil
}

func (s *certificationService) created(ctx context.Context, cert *models.Certification) {
	if cert.User == nil || cert.Course == nil {
		return
	}
	publish(ctx, s.events, s.logger, events.TopicCertificateIssued, events.CertificateIssued{
		CertificationID:  cert.ID,
		Email:            cert.User.Email,
		Name:             cert.User.FirstName,
		Course:           cert.Course.Title,
		CertificateType:  string(cert.CertificateType),
		VerificationCode: cert.VerificationCode,
		IssuedAt:         cert.IssuedAt,
	})
}

func (s *certificationService) Verify(ctx context.Context, code string) (*models.Certification, error) {
	code = strings.TrimSpace(code)
	if !validCode(code) {
		return nil, badRequest("INVALID_VERIFICATION_CODE", "Verification code must be exactly 10 digits.")
	}
	cert, err := s.repo.Certification().GetByVerificationCode(ctx, nil, code)
	if err != nil {
		return nil, storeError(policy.Certifications, code, "verify certification", err)
	}
	return cert, nil
}
