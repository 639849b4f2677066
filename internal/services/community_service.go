package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

type DiscussionService = ResourceService[models.Discussion, models.CreateDiscussionRequest, models.UpdateDiscussionRequest]

type discussionService struct {
	repo repositories.Repository
}

func NewDiscussionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) DiscussionService {
	s := &discussionService{repo: repo}
	return newCRUDService(policy.Discussions, repo.Discussion(), validator, logger, crudHooks[models.Discussion, models.CreateDiscussionRequest, models.UpdateDiscussionRequest]{
		build: s.build,
		patch: s.patch,
	})
}

func (s *discussionService) build(ctx context.Context, actor *policy.Actor, req *models.CreateDiscussionRequest) (*models.Discussion, policy.Owned, error) {
	if req.CourseID != nil {
		if _, err := s.repo.Course().GetByID(ctx, nil, *req.CourseID); err != nil {
			return nil, nil, storeError(policy.Courses, *req.CourseID, "get course", err)
		}
	}
	return &models.Discussion{
		CourseID: req.CourseID,
		AuthorID: actor.ID,
		Title:    req.Title,
		Category: req.Category,
		Content:  req.Content,
		Status:   models.ApplicationSubmitted,
	}, nil, nil
}

func (s *discussionService) patch(_ context.Context, _ *policy.Actor, _ *models.Discussion, req *models.UpdateDiscussionRequest) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	setIf(fields, "title", req.Title)
	setIf(fields, "category", req.Category)
	setIf(fields, "content", req.Content)
	setIf(fields, "status", req.Status)
	return fields, nil
}

type ReplyService interface {
	ResourceService[models.DiscussionReply, models.CreateReplyRequest, models.UpdateReplyRequest]
	// Thread returns the replies of a discussion nested under their parents
	Thread(ctx context.Context, actor *policy.Actor, discussionID uint) ([]*models.DiscussionReply, error)
}

type replyService struct {
	*crudService[models.DiscussionReply, models.CreateReplyRequest, models.UpdateReplyRequest]
	repo repositories.Repository
}

func NewReplyService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ReplyService {
	s := &replyService{repo: repo}
	s.crudService = newCRUDService(policy.Replies, repo.Reply(), validator, logger, crudHooks[models.DiscussionReply, models.CreateReplyRequest, models.UpdateReplyRequest]{
		build: s.build,
		patch: s.patch,
	})
	return s
}

func (s *replyService) build(ctx context.Context, actor *policy.Actor, req *models.CreateReplyRequest) (*models.DiscussionReply, policy.Owned, error) {
	discussion, err := s.repo.Discussion().GetByID(ctx, nil, req.DiscussionID)
	if err != nil {
		return nil, nil, storeError(policy.Discussions, req.DiscussionID, "get discussion", err)
	}
	if req.ParentReplyID != nil {
		parent, err := s.repo.Reply().GetByID(ctx, nil, *req.ParentReplyID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, nil, dbError("get parent reply", err)
		}
		if parent == nil || parent.DiscussionID != discussion.ID {
			return nil, nil, badRequest("INVALID_PARENT_REPLY", "Parent reply must belong to the same discussion.")
		}
	}

	reply := &models.DiscussionReply{
		DiscussionID:  discussion.ID,
		AuthorID:      actor.ID,
		Content:       req.Content,
		ParentReplyID: req.ParentReplyID,
	}
	if req.IsSolution != nil {
		reply.IsSolution = *req.IsSolution
	}
	return reply, nil, nil
}

func (s *replyService) patch(_ context.Context, _ *policy.Actor, _ *models.DiscussionReply, req *models.UpdateReplyRequest) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	setIf(fields, "content", req.Content)
	setIf(fields, "is_solution", req.IsSolution)
	return fields, nil
}

func (s *replyService) Thread(ctx context.Context, actor *policy.Actor, discussionID uint) ([]*models.DiscussionReply, error) {
	if err := policy.Authorize(actor, policy.Replies, policy.ActionList, nil); err != nil {
		return nil, err
	}
	if _, err := s.repo.Discussion().GetByID(ctx, nil, discussionID); err != nil {
		return nil, storeError(policy.Discussions, discussionID, "get discussion", err)
	}
	replies, err := s.repo.Reply().ListByDiscussion(ctx, nil, discussionID)
	if err != nil {
		return nil, dbError("list replies", err)
	}
	return models.BuildReplyTree(replies), nil
}
