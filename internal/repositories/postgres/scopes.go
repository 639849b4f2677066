package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/elearning-service/internal/policy"
)

const (
	instructorCourses     = "SELECT id FROM courses WHERE instructor_id = ?"
	instructorModules     = "SELECT m.id FROM modules m JOIN courses c ON c.id = m.course_id WHERE c.instructor_id = ?"
	enrolledModules       = "SELECT m.id FROM modules m JOIN enrollments e ON e.course_id = m.course_id WHERE e.user_id = ?"
	instructorAssessments = "SELECT a.id FROM assessments a JOIN modules m ON m.id = a.module_id JOIN courses c ON c.id = m.course_id WHERE c.instructor_id = ?"
	enrolledAssessments   = "SELECT a.id FROM assessments a JOIN modules m ON m.id = a.module_id JOIN enrollments e ON e.course_id = m.course_id WHERE e.user_id = ?"
	instructorDiscussions = "SELECT d.id FROM discussions d JOIN courses c ON c.id = d.course_id WHERE c.instructor_id = ?"
	posterJobs            = "SELECT id FROM job_opportunities WHERE posted_by_id = ?"
)

func none(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

func scopeUsers(db *gorm.DB, scope policy.Scope, userID uint) *gorm.DB {
	if scope == policy.ScopeSelf || scope == policy.ScopeOwned {
		return db.Where("id = ?", userID)
	}
	return none(db)
}

func scopeCourses(db *gorm.DB, scope policy.Scope, userID uint) *gorm.DB {
	switch scope {
	case policy.ScopeOwned:
		return db.Where("instructor_id = ?", userID)
	case policy.ScopeEnrolled:
		return db.Where("id IN (SELECT course_id FROM enrollments WHERE user_id = ?)", userID)
	}
	return none(db)
}

func scopeModules(db *gorm.DB, scope policy.Scope, userID uint) *gorm.DB {
	switch scope {
	case policy.ScopeOwned:
		return db.Where("course_id IN ("+instructorCourses+")", userID)
	case policy.ScopeEnrolled:
		return db.Where("course_id IN (SELECT course_id FROM enrollments WHERE user_id = ?)", userID)
	}
	return none(db)
}

func scopeAssessments(db *gorm.DB, scope policy.Scope, userID uint) *gorm.DB {
	switch scope {
	case policy.ScopeOwned:
		return db.Where("module_id IN ("+instructorModules+")", userID)
	case policy.ScopeEnrolled:
		return db.Where("module_id IN ("+enrolledModules+")", userID)
	}
	return none(db)
}

func scopeQuestions(db *gorm.DB, scope policy.Scope, userID uint) *gorm.DB {
	switch scope {
	case policy.ScopeOwned:
		return db.Where("assessment_id IN ("+instructorAssessments+")", userID)
	case policy.ScopeEnrolled:
		return db.Where("assessment_id IN ("+enrolledAssessments+")", userID)
	}
	return none(db)
}

// scopeCourseRecords scopes rows carrying user_id and course_id
func scopeCourseRecords(db *gorm.DB, scope policy.Scope, userID uint) *gorm.DB {
	switch scope {
	case policy.ScopeOwned:
		return db.Where("course_id IN ("+instructorCourses+")", userID)
	case policy.ScopeSelf:
		return db.Where("user_id = ?", userID)
	}
	return none(db)
}

func scopeUserAssessments(db *gorm.DB, scope policy.Scope, userID uint) *gorm.DB {
	switch scope {
	case policy.ScopeOwned:
		return db.Where("assessment_id IN ("+instructorAssessments+")", userID)
	case policy.ScopeSelf:
		return db.Where("user_id = ?", userID)
	}
	return none(db)
}

func scopeDiscussions(db *gorm.DB, scope policy.Scope, userID uint) *gorm.DB {
	switch scope {
	case policy.ScopeOwned:
		return db.Where("course_id IN ("+instructorCourses+")", userID)
	case policy.ScopeSelf:
		return db.Where("author_id = ?", userID)
	}
	return none(db)
}

func scopeReplies(db *gorm.DB, scope policy.Scope, userID uint) *gorm.DB {
	switch scope {
	case policy.ScopeOwned:
		return db.Where("discussion_id IN ("+instructorDiscussions+")", userID)
	case policy.ScopeSelf:
		return db.Where("author_id = ?", userID)
	}
	return none(db)
}

func scopeJobs(db *gorm.DB, scope policy.Scope, userID uint) *gorm.DB {
	if scope == policy.ScopeOwned || scope == policy.ScopeSelf {
		return db.Where("posted_by_id = ?", userID)
	}
	return none(db)
}

// scopeApplications keeps an applicant's own applications and, for posters,
// the applications to their jobs
func scopeApplications(db *gorm.DB, scope policy.Scope, userID uint) *gorm.DB {
	switch scope {
	case policy.ScopeOwned:
		return db.Where("user_id = ? OR job_id IN ("+posterJobs+")", userID, userID)
	case policy.ScopeSelf:
		return db.Where("user_id = ?", userID)
	}
	return none(db)
}

// OrderBy builds an ORDER BY clause from a whitelisted column and a direction,
// falling back to fallback when sortBy is not allowed
func OrderBy(sortBy, sortOrder string, allowed []string, fallback string) string {
	column := ""
	for _, candidate := range allowed {
		if candidate == sortBy {
			column = candidate
			break
		}
	}
	if column == "" {
		return fallback
	}

	direction := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		direction = "DESC"
	}
	if column == "id" {
		return "id " + direction
	}
	return column + " " + direction + ", id ASC"
}
