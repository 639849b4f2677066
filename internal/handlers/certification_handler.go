package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/services"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
)

// PublicCertificate is what anyone holding a verification code may see
type PublicCertificate struct {
	VerificationCode string                 `json:"verification_code"`
	HolderName       string                 `json:"holder_name"`
	CourseTitle      string                 `json:"course_title"`
	CertificateType  models.CertificateType `json:"certificate_type"`
	Title            string                 `json:"title"`
	IssuedAt         time.Time              `json:"issued_at"`
	IsVerified       bool                   `json:"is_verified"`
}

// CertificationHandler serves public verification and the xlsx exports
type CertificationHandler struct {
	BaseHandler
	certifications services.CertificationService
	exports        services.ExportService
}

func NewCertificationHandler(certifications services.CertificationService, exports services.ExportService, logger utils.Logger) *CertificationHandler {
	return &CertificationHandler{
		BaseHandler:    NewBaseHandler(logger.With("handler", "certifications")),
		certifications: certifications,
		exports:        exports,
	}
}

// Verify looks a certificate up by code without authentication. Admins, the
// holder and the course instructor get the full record.
// @Router /public/certifications/{code} [get]
func (h *CertificationHandler) Verify(c *gin.Context) {
	cert, err := h.certifications.Verify(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if actor := actorFrom(c); policy.CheckActor(actor) == nil &&
		(actor.IsAdmin() || actor.ID == cert.UserID || policy.IsOwner(actor, cert)) {
		c.JSON(http.StatusOK, cert)
		return
	}

	out := PublicCertificate{
		VerificationCode: cert.VerificationCode,
		CertificateType:  cert.CertificateType,
		Title:            cert.Title,
		IssuedAt:         cert.IssuedAt,
		IsVerified:       cert.IsVerified,
	}
	if cert.User != nil {
		out.HolderName = cert.User.FullName()
	}
	if cert.Course != nil {
		out.CourseTitle = cert.Course.Title
	}
	c.JSON(http.StatusOK, out)
}

// ExportCertifications streams the certifications visible to the requester
// @Router /certifications/export [get]
func (h *CertificationHandler) ExportCertifications(c *gin.Context) {
	export, err := h.exports.Certifications(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sendExport(c, export)
}

// ExportCourseEnrollments streams the enrollment roster of one course
// @Router /courses/{id}/enrollments/export [get]
func (h *CertificationHandler) ExportCourseEnrollments(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id", policy.Courses)
	if !ok {
		return
	}

	export, err := h.exports.CourseEnrollments(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sendExport(c, export)
}

func (h *CertificationHandler) sendExport(c *gin.Context, export *services.Export) {
	h.LogRequest(c, "Sending export", "filename", export.Filename, "rows", export.Rows)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, services.XLSXContentType, export.Data.Bytes())
}
