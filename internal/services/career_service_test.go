package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/elearning-service/internal/events"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/testutil"
)

func jobRequest(deadline time.Time, certificates ...uint) *models.CreateJobRequest {
	return &models.CreateJobRequest{
		Title:                  "Backend Intern",
		Description:            "Build APIs",
		Location:               "Kigali",
		JobType:                models.JobInternship,
		RequiredSkills:         []string{"go", "sql"},
		RequiredCertificateIDs: certificates,
		ApplicationDeadline:    deadline,
	}
}

func TestJobLifecycle(t *testing.T) {
	db, repo := newTestRepo(t)
	ctx := context.Background()
	svc := NewJobService(repo, testLogger, newTestValidator())

	employer := testutil.CreateUser(t, db, "acme", models.RoleEmployer)
	rival := testutil.CreateUser(t, db, "rival", models.RoleEmployer)
	student := testutil.CreateUser(t, db, "student", models.RoleStudent)
	lecturer := testutil.CreateUser(t, db, "lecturer", models.RoleInstructor)
	goCourse := testutil.CreateCourse(t, db, "Go", lecturer.ID)
	sqlCourse := testutil.CreateCourse(t, db, "SQL", lecturer.ID)

	future := time.Now().Add(7 * 24 * time.Hour)
	job, err := svc.Create(ctx, actorOf(employer), jobRequest(future, goCourse.ID, sqlCourse.ID))
	require.NoError(t, err)
	assert.Equal(t, employer.ID, job.PostedByID)
	assert.True(t, job.IsActive)
	assert.Len(t, job.RequiredCertificates, 2)
	assert.Equal(t, []string{"go", "sql"}, []string(job.RequiredSkills))

	_, err = svc.Create(ctx, actorOf(student), jobRequest(future))
	assert.Equal(t, policy.CodeInvalidRole, errorCode(t, err))

	_, err = svc.Create(ctx, actorOf(employer), jobRequest(time.Now().Add(-time.Hour)))
	assert.Equal(t, "INVALID_DEADLINE", errorCode(t, err))

	_, err = svc.Update(ctx, actorOf(rival), job.ID, &models.UpdateJobRequest{Title: ptr("Hijacked")})
	assert.Equal(t, "UNAUTHORIZED_JOB_ACCESS", errorCode(t, err))

	updated, err := svc.Update(ctx, actorOf(employer), job.ID, &models.UpdateJobRequest{
		RequiredCertificateIDs: []uint{sqlCourse.ID},
		RequiredSkills:         []string{"postgres"},
	})
	require.NoError(t, err)
	require.Len(t, updated.RequiredCertificates, 1)
	assert.Equal(t, "SQL", updated.RequiredCertificates[0].Title)
	assert.Equal(t, []string{"postgres"}, []string(updated.RequiredSkills))

	_, err = svc.Update(ctx, actorOf(employer), job.ID, &models.UpdateJobRequest{ApplicationDeadline: ptr(time.Now().Add(-time.Minute))})
	assert.Equal(t, "INVALID_DEADLINE", errorCode(t, err))

	_, total, err := svc.List(ctx, actorOf(student), ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestApplicationFlow(t *testing.T) {
	db, repo := newTestRepo(t)
	ctx := context.Background()
	bus := &recorder{}
	jobs := NewJobService(repo, testLogger, newTestValidator())
	svc := NewApplicationService(repo, testLogger, newTestValidator(), bus)

	employer := testutil.CreateUser(t, db, "acme", models.RoleEmployer)
	applicant := testutil.CreateUser(t, db, "applicant", models.RoleStudent)
	stranger := testutil.CreateUser(t, db, "stranger", models.RoleStudent)

	job, err := jobs.Create(ctx, actorOf(employer), jobRequest(time.Now().Add(24*time.Hour)))
	require.NoError(t, err)
	closed, err := jobs.Create(ctx, actorOf(employer), jobRequest(time.Now().Add(24*time.Hour)))
	require.NoError(t, err)
	_, err = jobs.Update(ctx, actorOf(employer), closed.ID, &models.UpdateJobRequest{IsActive: ptr(false)})
	require.NoError(t, err)

	application, err := svc.Create(ctx, actorOf(applicant), &models.CreateApplicationRequest{JobID: job.ID, CoverLetter: ptr("Hire me")})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationSubmitted, application.ApplicationStatus)

	_, err = svc.Create(ctx, actorOf(applicant), &models.CreateApplicationRequest{JobID: job.ID})
	assert.Equal(t, "DUPLICATE_APPLICATION", errorCode(t, err))
	_, err = svc.Create(ctx, actorOf(applicant), &models.CreateApplicationRequest{JobID: closed.ID})
	assert.Equal(t, "INACTIVE_JOB", errorCode(t, err))

	shortlisted := models.ApplicationShortlisted
	tests := []struct {
		name  string
		actor *policy.Actor
		req   *models.UpdateApplicationRequest
		want  string
	}{
		{"applicant moves status", actorOf(applicant), &models.UpdateApplicationRequest{ApplicationStatus: &shortlisted}, policy.CodePermissionDenied},
		{"poster edits letter", actorOf(employer), &models.UpdateApplicationRequest{CoverLetter: ptr("Edited")}, policy.CodePermissionDenied},
		{"stranger", actorOf(stranger), &models.UpdateApplicationRequest{CoverLetter: ptr("Mine")}, policy.CodePermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, tt.actor, application.ID, tt.req)
			assert.Equal(t, tt.want, errorCode(t, err))
		})
	}

	letter, err := svc.Update(ctx, actorOf(applicant), application.ID, &models.UpdateApplicationRequest{CoverLetter: ptr("Revised")})
	require.NoError(t, err)
	assert.Equal(t, "Revised", *letter.CoverLetter)
	assert.Empty(t, bus.topics())

	moved, err := svc.Update(ctx, actorOf(employer), application.ID, &models.UpdateApplicationRequest{ApplicationStatus: &shortlisted})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationShortlisted, moved.ApplicationStatus)
	assert.Equal(t, []string{events.TopicApplicationChanged}, bus.topics())

	_, seen, err := svc.List(ctx, actorOf(employer), ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), seen)
	_, none, err := svc.List(ctx, actorOf(stranger), ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), none)
}

func TestDiscussionThread(t *testing.T) {
	db, repo := newTestRepo(t)
	ctx := context.Background()
	discussions := NewDiscussionService(repo, testLogger, newTestValidator())
	replies := NewReplyService(repo, testLogger, newTestValidator())

	author := testutil.CreateUser(t, db, "author", models.RoleStudent)
	helper := testutil.CreateUser(t, db, "helper", models.RoleMentor)

	topic, err := discussions.Create(ctx, actorOf(author), &models.CreateDiscussionRequest{
		Title: "Goroutines", Category: models.DiscussionTechnical, Content: "How many is too many?",
	})
	require.NoError(t, err)
	assert.Equal(t, author.ID, topic.AuthorID)
	assert.Equal(t, models.ApplicationSubmitted, topic.Status)

	other, err := discussions.Create(ctx, actorOf(helper), &models.CreateDiscussionRequest{
		Title: "Careers", Category: models.DiscussionCareer, Content: "Hiring?",
	})
	require.NoError(t, err)

	_, err = discussions.Update(ctx, actorOf(helper), topic.ID, &models.UpdateDiscussionRequest{Title: ptr("Mine now")})
	assert.Equal(t, policy.CodePermissionDenied, errorCode(t, err))

	root, err := replies.Create(ctx, actorOf(helper), &models.CreateReplyRequest{DiscussionID: topic.ID, Content: "Depends"})
	require.NoError(t, err)
	child, err := replies.Create(ctx, actorOf(author), &models.CreateReplyRequest{DiscussionID: topic.ID, Content: "On what?", ParentReplyID: &root.ID})
	require.NoError(t, err)
	foreign, err := replies.Create(ctx, actorOf(author), &models.CreateReplyRequest{DiscussionID: other.ID, Content: "Yes"})
	require.NoError(t, err)

	_, err = replies.Create(ctx, actorOf(author), &models.CreateReplyRequest{DiscussionID: topic.ID, Content: "Cross", ParentReplyID: &foreign.ID})
	assert.Equal(t, "INVALID_PARENT_REPLY", errorCode(t, err))
	_, err = replies.Create(ctx, actorOf(author), &models.CreateReplyRequest{DiscussionID: topic.ID, Content: "Ghost", ParentReplyID: ptr(uint(999))})
	assert.Equal(t, "INVALID_PARENT_REPLY", errorCode(t, err))

	thread, err := replies.Thread(ctx, actorOf(author), topic.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, root.ID, thread[0].ID)
	require.Len(t, thread[0].Children, 1)
	assert.Equal(t, child.ID, thread[0].Children[0].ID)

	_, err = replies.Thread(ctx, actorOf(author), 999)
	assert.Equal(t, "DISCUSSION_NOT_FOUND", errorCode(t, err))
}
