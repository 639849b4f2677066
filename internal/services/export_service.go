package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
)

// XLSXContentType is the media type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export is a generated workbook
type Export struct {
	Filename string
	Data     *bytes.Buffer
	Rows     int
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger.With("component", "export"), now: time.Now}
}

// writeSheet streams header and rows into a single-sheet workbook
func writeSheet(sheet string, header []interface{}, rows [][]interface{}) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, err
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}
	return f.WriteToBuffer()
}

func (s *exportService) CourseEnrollments(ctx context.Context, actor *policy.Actor, courseID uint) (*Export, error) {
	if err := policy.CheckActor(actor); err != nil {
		return nil, err
	}
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, storeError(policy.Courses, courseID, "get course", err)
	}
	if err := policy.Authorize(actor, policy.Courses, policy.ActionUpdate, course); err != nil {
		return nil, err
	}

	enrollments, _, err := s.repo.Enrollment().List(ctx, nil, repositories.ListFilter{
		Scope: policy.ScopeAll,
		Where: map[string]interface{}{"course_id": course.ID},
	})
	if err != nil {
		return nil, dbError("list enrollments", err)
	}

	users := make(map[uint]*models.User)
	rows := make([][]interface{}, 0, len(enrollments))
	for _, e := range enrollments {
		user, ok := users[e.UserID]
		if !ok {
			user, err = s.repo.User().GetByID(ctx, nil, e.UserID)
			if err != nil && !repositories.IsNotFoundError(err) {
				return nil, dbError("get user", err)
			}
			users[e.UserID] = user
		}
		name, email := "", ""
		if user != nil {
			name, email = user.FullName(), user.Email
		}
		rows = append(rows, []interface{}{e.ID, e.UserID, name, email, string(e.Status), e.EnrolledAt.UTC().Format(time.RFC3339)})
	}

	data, err := writeSheet("Enrollments", []interface{}{"Enrollment ID", "User ID", "Name", "Email", "Status", "Enrolled At"}, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build enrollment export: %w", err)
	}
	s.logger.Info("Enrollments exported", "course_id", course.ID, "rows", len(rows), "user_id", actor.ID)
	return &Export{
		Filename: fmt.Sprintf("course-%d-enrollments-%s.xlsx", course.ID, s.now().UTC().Format("20060102")),
		Data:     data,
		Rows:     len(rows),
	}, nil
}

func (s *exportService) Certifications(ctx context.Context, actor *policy.Actor) (*Export, error) {
	if err := policy.Authorize(actor, policy.Certifications, policy.ActionList, nil); err != nil {
		return nil, err
	}
	certs, _, err := s.repo.Certification().List(ctx, nil, repositories.ListFilter{
		Scope:  policy.ScopeFor(actor, policy.Certifications),
		UserID: actor.ID,
	})
	if err != nil {
		return nil, dbError("list certifications", err)
	}

	rows := make([][]interface{}, 0, len(certs))
	for _, c := range certs {
		holder, course := "", ""
		if c.User != nil {
			holder = c.User.FullName()
		}
		if c.Course != nil {
			course = c.Course.Title
		}
		rows = append(rows, []interface{}{
			c.VerificationCode, holder, course, string(c.CertificateType), c.Title, c.IsVerified, c.IssuedAt.UTC().Format(time.RFC3339),
		})
	}

	data, err := writeSheet("Certifications", []interface{}{"Verification Code", "Holder", "Course", "Type", "Title", "Verified", "Issued At"}, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build certification export: %w", err)
	}
	s.logger.Info("Certifications exported", "rows", len(rows), "user_id", actor.ID)
	return &Export{
		Filename: fmt.Sprintf("certifications-%s.xlsx", s.now().UTC().Format("20060102")),
		Data:     data,
		Rows:     len(rows),
	}, nil
}
