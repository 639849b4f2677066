package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/elearning-service/internal/cache"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/testutil"
)

func TestCreateUniqueEnrollment(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewEnrollmentPostgreSQL(db)

	instructor := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	student := testutil.CreateUser(t, db, "learner", models.RoleStudent)
	course := testutil.CreateCourse(t, db, "Go Basics", instructor.ID)

	first := &models.Enrollment{UserID: student.ID, CourseID: course.ID, Status: models.EnrollmentActive}
	created, err := repo.CreateUnique(ctx, nil, first, "user_id", "course_id")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, first.ID)

	second := &models.Enrollment{UserID: student.ID, CourseID: course.ID, Status: models.EnrollmentActive}
	created, err = repo.CreateUnique(ctx, nil, second, "user_id", "course_id")
	require.NoError(t, err)
	assert.False(t, created)

	enrolled, err := repo.IsEnrolled(ctx, nil, student.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
}

func TestCreateDuplicateTitle(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewCoursePostgreSQL(db, cache.NewCacheManager(nil))

	instructor := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	require.NoError(t, repo.Create(ctx, nil, &models.Course{Title: "Go", InstructorID: instructor.ID, DifficultyLevel: models.DifficultyBeginner}))

	err := repo.Create(ctx, nil, &models.Course{Title: "Go", InstructorID: instructor.ID, DifficultyLevel: models.DifficultyBeginner})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repositories.ErrDuplicate))
	assert.True(t, repositories.DuplicateOn(err, "title"))
}

func TestGetUpdateDelete(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewCoursePostgreSQL(db, cache.NewCacheManager(nil))

	instructor := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	course := testutil.CreateCourse(t, db, "Rust", instructor.ID)

	got, err := repo.GetByID(ctx, nil, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rust", got.Title)

	require.NoError(t, repo.Update(ctx, nil, course.ID, map[string]interface{}{"title": "Rust 2"}))
	got, err = repo.GetByID(ctx, nil, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rust 2", got.Title)

	require.NoError(t, repo.Delete(ctx, nil, course.ID))
	_, err = repo.GetByID(ctx, nil, course.ID)
	assert.True(t, repositories.IsNotFoundError(err))

	err = repo.Delete(ctx, nil, course.ID)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}

func TestGetByIDCached(t *testing.T) {
	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	ctx := context.Background()
	repo := NewCoursePostgreSQL(db, cache.NewCacheManager(client))

	instructor := testutil.CreateUser(t, db, "teacher", models.RoleInstructor)
	course := testutil.CreateCourse(t, db, "Elixir", instructor.ID)

	_, err := repo.GetByID(ctx, nil, course.ID)
	require.NoError(t, err)
	key := "course:" + cache.EntityKey(policy.Courses, course.ID)
	assert.Eventually(t, func() bool { return mr.Exists(key) }, time.Second, 10*time.Millisecond)

	require.NoError(t, repo.Update(ctx, nil, course.ID, map[string]interface{}{"title": "Elixir 2"}))
	assert.False(t, mr.Exists(key))

	got, err := repo.GetByID(ctx, nil, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Elixir 2", got.Title)
}

func TestListScopes(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	courses := NewCoursePostgreSQL(db, cache.NewCacheManager(nil))
	assessments := NewAssessmentPostgreSQL(db)
	enrollments := NewEnrollmentPostgreSQL(db)

	alice := testutil.CreateUser(t, db, "alice", models.RoleInstructor)
	bob := testutil.CreateUser(t, db, "bob", models.RoleInstructor)
	student := testutil.CreateUser(t, db, "sam", models.RoleStudent)

	aliceCourse := testutil.CreateCourse(t, db, "A course", alice.ID)
	bobCourse := testutil.CreateCourse(t, db, "B course", bob.ID)

	for _, course := range []*models.Course{aliceCourse, bobCourse} {
		module := &models.Module{CourseID: course.ID, Order: 1, Title: "Intro", ContentType: models.ContentText}
		require.NoError(t, db.Create(module).Error)
		require.NoError(t, db.Create(&models.Assessment{
			ModuleID: module.ID, Title: course.Title + " quiz", AssessmentType: models.AssessmentQuiz,
			MaxAttempts: 3, PassingScore: 70, Duration: 30, IsActive: true,
		}).Error)
	}
	require.NoError(t, enrollments.Create(ctx, nil, &models.Enrollment{UserID: student.ID, CourseID: bobCourse.ID, Status: models.EnrollmentActive}))

	tests := []struct {
		name   string
		filter repositories.ListFilter
		want   []string
	}{
		{"owned", repositories.ListFilter{Scope: policy.ScopeOwned, UserID: alice.ID}, []string{"A course quiz"}},
		{"enrolled", repositories.ListFilter{Scope: policy.ScopeEnrolled, UserID: student.ID}, []string{"B course quiz"}},
		{"all", repositories.ListFilter{Scope: policy.ScopeAll, Order: "title ASC"}, []string{"A course quiz", "B course quiz"}},
		{"unsupported", repositories.ListFilter{Scope: policy.ScopeSelf, UserID: student.ID}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := assessments.List(ctx, nil, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)

			titles := make([]string, 0, len(items))
			for _, item := range items {
				titles = append(titles, item.Title)
				require.NotNil(t, item.Module)
				require.NotNil(t, item.Module.Course)
			}
			assert.ElementsMatch(t, tt.want, titles)
		})
	}

	items, total, err := courses.List(ctx, nil, repositories.ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 1)
	assert.Equal(t, "A course", items[0].Title)

	_, err = courses.GetScoped(ctx, nil, bobCourse.ID, repositories.ListFilter{Scope: policy.ScopeOwned, UserID: alice.ID})
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestListWhereFilters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewCoursePostgreSQL(db, cache.NewCacheManager(nil))

	alice := testutil.CreateUser(t, db, "alice", models.RoleInstructor)
	bob := testutil.CreateUser(t, db, "bob", models.RoleInstructor)
	testutil.CreateCourse(t, db, "One", alice.ID)
	testutil.CreateCourse(t, db, "Two", bob.ID)

	items, total, err := repo.List(ctx, nil, repositories.ListFilter{
		Where: map[string]interface{}{"instructor_id": bob.ID, "unknown_column": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Two", items[0].Title)
}

func TestOrderBy(t *testing.T) {
	allowed := []string{"title", "created_at", "id"}
	assert.Equal(t, "title DESC, id ASC", OrderBy("title", "desc", allowed, "id ASC"))
	assert.Equal(t, "created_at ASC, id ASC", OrderBy("created_at", "", allowed, "id ASC"))
	assert.Equal(t, "id DESC", OrderBy("id", "DESC", allowed, "title ASC"))
	assert.Equal(t, "title ASC", OrderBy("password; DROP", "asc", allowed, "title ASC"))
}
