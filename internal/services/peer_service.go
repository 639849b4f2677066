package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/repositories/docstore"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

// PeerFilter narrows a session listing to one indexed field
type PeerFilter struct {
	Status   string
	CourseID *uint
	Role     string
}

type peerSessionService struct {
	sessions     *docstore.Collection
	participants *docstore.Collection
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	now          func() time.Time
}

func NewPeerSessionService(store *docstore.Store, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) PeerSessionService {
	return &peerSessionService{
		sessions:     store.Collection(docstore.PeerLearningSessions),
		participants: store.Collection(docstore.PeerLearningParticipants),
		repo:         repo,
		logger:       logger.With("resource", policy.PeerSessions),
		validator:    validator,
		now:          time.Now,
	}
}

func docError(resource, id string, op string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return notFound(resource, id)
	}
	return dbError(op, err)
}

func decodeSessions(page *docstore.Page) ([]models.PeerSession, int64, error) {
	sessions, err := docstore.Decode[models.PeerSession](page)
	if err != nil {
		return nil, 0, dbError("decode peer sessions", err)
	}
	return sessions, page.Total, nil
}

func (s *peerSessionService) load(ctx context.Context, id string) (*models.PeerSession, error) {
	var session models.PeerSession
	if err := s.sessions.Get(ctx, id, &session); err != nil {
		return nil, docError(policy.PeerSessions, id, "get peer session", err)
	}
	return &session, nil
}

func (s *peerSessionService) Create(ctx context.Context, actor *policy.Actor, req *models.CreatePeerSessionRequest) (*models.PeerSession, error) {
	if err := policy.Authorize(actor, policy.PeerSessions, policy.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.CourseID != nil {
		if _, err := s.repo.Course().GetByID(ctx, nil, *req.CourseID); err != nil {
			return nil, storeError(policy.Courses, *req.CourseID, "get course", err)
		}
	}

	now := s.now().UTC()
	session := &models.PeerSession{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		Topic:           req.Topic,
		CourseID:        req.CourseID,
		HostID:          actor.ID,
		HostRole:        actor.Role,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		MaxParticipants: req.MaxParticipants,
		MeetingLink:     req.MeetingLink,
		Status:          models.PeerSessionScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.sessions.InsertUnique(ctx, session.ID, session); err != nil {
		return nil, dbError("create peer session", err)
	}

	s.logger.Info("Peer session created", "id", session.ID, "host_id", actor.ID)
	return session, nil
}

func (s *peerSessionService) List(ctx context.Context, actor *policy.Actor, filter PeerFilter, offset, limit int) ([]models.PeerSession, int64, error) {
	if err := policy.Authorize(actor, policy.PeerSessions, policy.ActionList, nil); err != nil {
		return nil, 0, err
	}

	var (
		page *docstore.Page
		err  error
	)
	switch {
	case filter.Status != "":
		page, err = s.sessions.FindBy(ctx, "status", filter.Status, offset, limit)
	case filter.CourseID != nil:
		page, err = s.sessions.FindBy(ctx, "course_id", strconv.FormatUint(uint64(*filter.CourseID), 10), offset, limit)
	case filter.Role != "":
		page, err = s.sessions.FindBy(ctx, "role", filter.Role, offset, limit)
	default:
		page, err = s.sessions.List(ctx, offset, limit)
	}
	if err != nil {
		return nil, 0, dbError("list peer sessions", err)
	}
	return decodeSessions(page)
}

func (s *peerSessionService) Mine(ctx context.Context, actor *policy.Actor, offset, limit int) ([]models.PeerSession, int64, error) {
	if err := policy.CheckActor(actor); err != nil {
		return nil, 0, err
	}
	page, err := s.sessions.FindBy(ctx, "host_id", strconv.FormatUint(uint64(actor.ID), 10), offset, limit)
	if err != nil {
		return nil, 0, dbError("list hosted peer sessions", err)
	}
	return decodeSessions(page)
}

func (s *peerSessionService) Get(ctx context.Context, actor *policy.Actor, id string) (*models.PeerSession, error) {
	if err := policy.CheckActor(actor); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *peerSessionService) Update(ctx context.Context, actor *policy.Actor, id string, req *models.UpdatePeerSessionRequest) (*models.PeerSession, error) {
	if err := policy.CheckActor(actor); err != nil {
		return nil, err
	}
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.PeerSessions, policy.ActionUpdate, session); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if req.Title != nil {
		session.Title = *req.Title
	}
	if req.Description != nil {
		session.Description = *req.Description
	}
	if req.Topic != nil {
		session.Topic = *req.Topic
	}
	if req.ScheduledAt != nil {
		session.ScheduledAt = *req.ScheduledAt
	}
	if req.DurationMinutes != nil {
		session.DurationMinutes = *req.DurationMinutes
	}
	if req.MaxParticipants != nil {
		joined, err := s.participants.CountBy(ctx, "session_id", session.ID)
		if err != nil {
			return nil, dbError("count participants", err)
		}
		if int64(*req.MaxParticipants) < joined {
			return nil, badRequest("INVALID_MAX_PARTICIPANTS", fmt.Sprintf("The session already has %d participants.", joined))
		}
		session.MaxParticipants = *req.MaxParticipants
	}
	if req.MeetingLink != nil {
		session.MeetingLink = *req.MeetingLink
	}
	if req.Status != nil {
		session.Status = *req.Status
	}
	session.UpdatedAt = s.now().UTC()

	if err := s.sessions.Put(ctx, session.ID, session); err != nil {
		return nil, dbError("update peer session", err)
	}
	s.logger.Info("Peer session updated", "id", session.ID, "user_id", actor.ID)
	return session, nil
}

func (s *peerSessionService) Delete(ctx context.Context, actor *policy.Actor, id string) error {
	if err := policy.CheckActor(actor); err != nil {
		return err
	}
	session, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.PeerSessions, policy.ActionDelete, session); err != nil {
		return err
	}

	page, err := s.participants.FindBy(ctx, "session_id", session.ID, 0, 0)
	if err != nil {
		return dbError("list participants", err)
	}
	seats, err := docstore.Decode[models.PeerParticipant](page)
	if err != nil {
		return dbError("decode participants", err)
	}
	for _, seat := range seats {
		if err := s.participants.Delete(ctx, seat.ID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return dbError("delete participant", err)
		}
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return docError(policy.PeerSessions, id, "delete peer session", err)
	}
	s.logger.Info("Peer session deleted", "id", session.ID, "user_id", actor.ID, "participants", len(seats))
	return nil
}

// Join seats actor in the session. The (session, user) pair is claimed
// atomically; the capacity check runs just before the claim.
func (s *peerSessionService) Join(ctx context.Context, actor *policy.Actor, id string) (*models.PeerParticipant, error) {
	if err := policy.CheckActor(actor); err != nil {
		return nil, err
	}
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status == models.PeerSessionCompleted || session.Status == models.PeerSessionCancelled {
		return nil, badRequest("SESSION_CLOSED", "This peer session is no longer open.")
	}

	joined, err := s.participants.CountBy(ctx, "session_id", session.ID)
	if err != nil {
		return nil, dbError("count participants", err)
	}
	if joined >= int64(session.MaxParticipants) {
		return nil, badRequest("SESSION_FULL", "This peer session has reached its maximum number of participants.")
	}

	seat := &models.PeerParticipant{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		UserID:    actor.ID,
		Role:      actor.Role,
		JoinedAt:  s.now().UTC(),
	}
	if err := s.participants.InsertUnique(ctx, seat.ID, seat, "session_id", "user_id"); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return nil, duplicate("DUPLICATE_PARTICIPANT", "You have already joined this session.")
		}
		return nil, dbError("join peer session", err)
	}
	s.logger.Info("Peer session joined", "session_id", session.ID, "user_id", actor.ID)
	return seat, nil
}

func (s *peerSessionService) Leave(ctx context.Context, actor *policy.Actor, id string) error {
	if err := policy.CheckActor(actor); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	page, err := s.participants.FindBy(ctx, "user_id", strconv.FormatUint(uint64(actor.ID), 10), 0, 0)
	if err != nil {
		return dbError("list participations", err)
	}
	seats, err := docstore.Decode[models.PeerParticipant](page)
	if err != nil {
		return dbError("decode participants", err)
	}
	for _, seat := range seats {
		if seat.SessionID != id {
			continue
		}
		if err := s.participants.Delete(ctx, seat.ID); err != nil {
			return docError("participants", seat.ID, "leave peer session", err)
		}
		s.logger.Info("Peer session left", "session_id", id, "user_id", actor.ID)
		return nil
	}
	return NewAppError(http.StatusNotFound, "NOT_A_PARTICIPANT", "You have not joined this session.")
}

func (s *peerSessionService) Participants(ctx context.Context, actor *policy.Actor, id string, offset, limit int) ([]models.PeerParticipant, int64, error) {
	if err := policy.CheckActor(actor); err != nil {
		return nil, 0, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, 0, err
	}
	page, err := s.participants.FindBy(ctx, "session_id", id, offset, limit)
	if err != nil {
		return nil, 0, dbError("list participants", err)
	}
	seats, err := docstore.Decode[models.PeerParticipant](page)
	if err != nil {
		return nil, 0, dbError("decode participants", err)
	}
	return seats, page.Total, nil
}
