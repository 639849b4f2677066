package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/elearning-service/internal/models"
)

func actor(id uint, role models.UserRole) *Actor {
	return &Actor{ID: id, Role: role, IsActive: true, IsVerified: true}
}

func code(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		return ""
	}
	var v *Violation
	require.True(t, errors.As(err, &v), "expected *Violation, got %T", err)
	return v.Code
}

func TestAuthorize(t *testing.T) {
	course := &models.Course{ID: 1, InstructorID: 10}
	job := &models.JobOpportunity{ID: 1, PostedByID: 20}
	application := &models.JobApplication{UserID: 30, Job: job}
	discussion := &models.Discussion{AuthorID: 30}

	tests := []struct {
		name     string
		actor    *Actor
		resource string
		action   Action
		obj      Owned
		want     string
	}{
		{"anonymous", nil, Courses, ActionList, nil, CodeNotAuthenticated},
		{"inactive", &Actor{ID: 1, Role: models.RoleStudent, IsVerified: true}, Courses, ActionList, nil, CodeUserInactive},
		{"unverified", &Actor{ID: 1, Role: models.RoleStudent, IsActive: true}, Courses, ActionList, nil, CodeUserNotVerified},
		{"student lists courses", actor(30, models.RoleStudent), Courses, ActionList, nil, ""},
		{"student creates course", actor(30, models.RoleStudent), Courses, ActionCreate, nil, CodeInvalidRole},
		{"instructor creates course", actor(10, models.RoleInstructor), Courses, ActionCreate, nil, ""},
		{"owner updates course", actor(10, models.RoleInstructor), Courses, ActionUpdate, course, ""},
		{"other instructor updates course", actor(11, models.RoleInstructor), Courses, ActionUpdate, course, CodePermissionDenied},
		{"admin updates any course", actor(1, models.RoleAdmin), Courses, ActionDelete, course, ""},
		{"module create on foreign course", actor(11, models.RoleInstructor), Modules, ActionCreate, course, CodePermissionDenied},
		{"job update by non poster", actor(21, models.RoleEmployer), Jobs, ActionUpdate, job, "UNAUTHORIZED_JOB_ACCESS"},
		{"job create by student", actor(30, models.RoleStudent), Jobs, ActionCreate, nil, CodeInvalidRole},
		{"mentor posts job", actor(22, models.RoleMentor), Jobs, ActionCreate, nil, ""},
		{"applicant updates application", actor(30, models.RoleStudent), Applications, ActionUpdate, application, ""},
		{"poster updates application", actor(20, models.RoleEmployer), Applications, ActionUpdate, application, ""},
		{"student cannot delete application", actor(30, models.RoleStudent), Applications, ActionDelete, application, CodeInvalidRole},
		{"poster deletes application", actor(20, models.RoleEmployer), Applications, ActionDelete, application, ""},
		{"author edits discussion", actor(30, models.RoleStudent), Discussions, ActionUpdate, discussion, ""},
		{"stranger edits discussion", actor(31, models.RoleStudent), Discussions, ActionUpdate, discussion, CodePermissionDenied},
		{"catalog is admin only", actor(10, models.RoleInstructor), Languages, ActionCreate, nil, CodeInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, code(t, Authorize(tt.actor, tt.resource, tt.action, tt.obj)))
		})
	}
}

func TestInvalidRoleMessage(t *testing.T) {
	err := RequireRoles(actor(1, models.RoleStudent), models.RoleAdmin, models.RoleInstructor)
	require.Error(t, err)
	assert.Equal(t, "User must have one of the following roles: Admin, Instructor", err.Error())
}

func TestScopeFor(t *testing.T) {
	tests := []struct {
		role     models.UserRole
		resource string
		want     Scope
	}{
		{models.RoleInstructor, Courses, ScopeOwned},
		{models.RoleStudent, Courses, ScopeAll},
		{models.RoleStudent, Assessments, ScopeEnrolled},
		{models.RoleAdmin, Assessments, ScopeAll},
		{models.RoleStudent, Enrollments, ScopeSelf},
		{models.RoleAdmin, Enrollments, ScopeAll},
		{models.RoleEmployer, Applications, ScopeOwned},
		{models.RoleStudent, Applications, ScopeSelf},
		{models.RoleStudent, Jobs, ScopeAll},
		{models.RoleMentor, Certifications, ScopeSelf},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+tt.resource, func(t *testing.T) {
			assert.Equal(t, tt.want, ScopeFor(actor(1, tt.role), tt.resource))
		})
	}
}

func TestCodeName(t *testing.T) {
	assert.Equal(t, "COURSE", CodeName(Courses))
	assert.Equal(t, "USER_ASSESSMENT", CodeName(UserAssessments))
	assert.Equal(t, "CATEGORY", CodeName(Categories))
	assert.Equal(t, "WIDGET_PARTS", CodeName("widget-parts"))
}
