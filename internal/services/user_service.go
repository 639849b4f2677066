package services

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{repo: repo, logger: logger.With("resource", policy.Users), validator: validator}
}

func (s *userService) Me(ctx context.Context, actor *policy.Actor) (*models.User, error) {
	if err := policy.CheckActor(actor); err != nil {
		return nil, err
	}
	user, err := s.repo.User().GetByID(ctx, nil, actor.ID)
	if err != nil {
		return nil, storeError(policy.Users, actor.ID, "get user", err)
	}
	return user, nil
}

func (s *userService) UpdateMe(ctx context.Context, actor *policy.Actor, req *models.UpdateUserRequest) (*models.User, error) {
	if err := policy.CheckActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if req.Username != nil {
		other, err := s.repo.User().GetByUsername(ctx, nil, *req.Username)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, dbError("get user by username", err)
		}
		if other != nil && other.ID != actor.ID {
			return nil, badRequest("USERNAME_EXISTS", "This username is already in use")
		}
	}

	fields := map[string]interface{}{}
	setIf(fields, "username", req.Username)
	setIf(fields, "first_name", req.FirstName)
	setIf(fields, "middle_name", req.MiddleName)
	setIf(fields, "last_name", req.LastName)
	if len(fields) > 0 {
		if err := s.repo.User().Update(ctx, nil, actor.ID, fields); err != nil {
			if repositories.IsDuplicateError(err) {
				return nil, badRequest("USERNAME_EXISTS", "This username is already in use")
			}
			return nil, storeError(policy.Users, actor.ID, "update user", err)
		}
	}

	if req.Profile != nil {
		if err := s.saveProfile(ctx, actor.ID, req.Profile); err != nil {
			return nil, err
		}
	}

	s.logger.Info("User profile updated", "user_id", actor.ID)
	return s.Me(ctx, actor)
}

func (s *userService) saveProfile(ctx context.Context, userID uint, req *models.UpdateProfileRequest) error {
	profile, err := s.repo.Profile().GetByUserID(ctx, nil, userID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return dbError("get profile", err)
		}
		profile = &models.UserProfile{UserID: userID}
	}

	if req.Bio != nil {
		profile.Bio = req.Bio
	}
	if req.PhoneNumber != nil {
		profile.PhoneNumber = req.PhoneNumber
	}
	if req.DateOfBirth != nil {
		profile.DateOfBirth = req.DateOfBirth
	}
	if req.LanguagePreference != nil {
		profile.LanguagePreference = req.LanguagePreference
	}
	if req.Gender != nil {
		profile.Gender = req.Gender
	}
	if req.EducationLevel != nil {
		profile.EducationLevel = req.EducationLevel
	}
	if req.Camp != nil {
		profile.Camp = req.Camp
	}

	if err := s.repo.Profile().Upsert(ctx, nil, profile); err != nil {
		return dbError("save profile", err)
	}
	return nil
}

func (s *userService) List(ctx context.Context, actor *policy.Actor, q ListQuery) ([]models.User, int64, error) {
	if err := policy.Authorize(actor, policy.Users, policy.ActionList, nil); err != nil {
		return nil, 0, err
	}
	users, total, err := s.repo.User().List(ctx, nil, repositories.ListFilter{
		Scope:  policy.ScopeFor(actor, policy.Users),
		UserID: actor.ID,
		Where:  q.Where,
		Offset: q.Offset,
		Limit:  q.Limit,
		Order:  q.Order,
	})
	if err != nil {
		return nil, 0, dbError("list users", err)
	}
	return users, total, nil
}

func (s *userService) Get(ctx context.Context, actor *policy.Actor, id uint) (*models.User, error) {
	if err := policy.CheckActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != id {
		return nil, NewAppError(http.StatusForbidden, "UNAUTHORIZED_PROFILE_ACCESS", "You can only view your own profile.")
	}
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		return nil, storeError(policy.Users, id, "get user", err)
	}
	return user, nil
}

func (s *userService) adminUpdate(ctx context.Context, actor *policy.Actor, id uint, fields map[string]interface{}) (*models.User, error) {
	if err := policy.RequireRoles(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := s.repo.User().GetByID(ctx, nil, id); err != nil {
		return nil, storeError(policy.Users, id, "get user", err)
	}
	if err := s.repo.User().Update(ctx, nil, id, fields); err != nil {
		return nil, storeError(policy.Users, id, "update user", err)
	}
	s.logger.Info("User updated by admin", "user_id", id, "admin_id", actor.ID, "fields", len(fields))

	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		return nil, storeError(policy.Users, id, "reload user", err)
	}
	return user, nil
}

func (s *userService) UpdateRole(ctx context.Context, actor *policy.Actor, id uint, req *models.UpdateRoleRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, badRequest("INVALID_DATA", "Unknown role '"+req.Role+"'.")
	}
	return s.adminUpdate(ctx, actor, id, map[string]interface{}{
		"role":     role,
		"is_staff": role == models.RoleAdmin,
	})
}

func (s *userService) UpdateStatus(ctx context.Context, actor *policy.Actor, id uint, req *models.UpdateStatusRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if actor != nil && actor.ID == id && !*req.IsActive {
		return nil, badRequest("INVALID_DATA", "Admins cannot deactivate their own account.")
	}
	return s.adminUpdate(ctx, actor, id, map[string]interface{}{"is_active": *req.IsActive})
}

func (s *userService) Delete(ctx context.Context, actor *policy.Actor, id uint) error {
	if err := policy.Authorize(actor, policy.Users, policy.ActionDelete, nil); err != nil {
		return err
	}
	if err := s.repo.User().Delete(ctx, nil, id); err != nil {
		return storeError(policy.Users, id, "delete user", err)
	}
	s.logger.Info("User deleted", "user_id", id, "admin_id", actor.ID)
	return nil
}
