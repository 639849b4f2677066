package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

type LanguageService = ResourceService[models.Language, models.CreateLanguageRequest, models.UpdateLanguageRequest]
type CampService = ResourceService[models.Camp, models.CreateCampRequest, models.UpdateCampRequest]
type CategoryService = ResourceService[models.CourseCategory, models.CreateCategoryRequest, models.UpdateCategoryRequest]

func NewLanguageService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) LanguageService {
	return newCRUDService(policy.Languages, repo.Language(), validator, logger, crudHooks[models.Language, models.CreateLanguageRequest, models.UpdateLanguageRequest]{
		build: func(_ context.Context, _ *policy.Actor, req *models.CreateLanguageRequest) (*models.Language, policy.Owned, error) {
			return &models.Language{Code: req.Code, Name: req.Name}, nil, nil
		},
		patch: func(_ context.Context, _ *policy.Actor, _ *models.Language, req *models.UpdateLanguageRequest) (map[string]interface{}, error) {
			fields := map[string]interface{}{}
			setIf(fields, "code", req.Code)
			setIf(fields, "name", req.Name)
			return fields, nil
		},
		duplicate: func(error) error {
			return duplicate("DUPLICATE_LANGUAGE", "A language with this code already exists.")
		},
	})
}

func NewCampService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) CampService {
	return newCRUDService(policy.Camps, repo.Camp(), validator, logger, crudHooks[models.Camp, models.CreateCampRequest, models.UpdateCampRequest]{
		build: func(_ context.Context, _ *policy.Actor, req *models.CreateCampRequest) (*models.Camp, policy.Owned, error) {
			return &models.Camp{Name: req.Name, Location: req.Location}, nil, nil
		},
		patch: func(_ context.Context, _ *policy.Actor, _ *models.Camp, req *models.UpdateCampRequest) (map[string]interface{}, error) {
			fields := map[string]interface{}{}
			setIf(fields, "name", req.Name)
			setIf(fields, "location", req.Location)
			return fields, nil
		},
		duplicate: func(error) error {
			return duplicate("DUPLICATE_CAMP", "A camp with this name already exists.")
		},
	})
}

func NewCategoryService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) CategoryService {
	return newCRUDService(policy.Categories, repo.Category(), validator, logger, crudHooks[models.CourseCategory, models.CreateCategoryRequest, models.UpdateCategoryRequest]{
		build: func(_ context.Context, _ *policy.Actor, req *models.CreateCategoryRequest) (*models.CourseCategory, policy.Owned, error) {
			return &models.CourseCategory{Name: req.Name}, nil, nil
		},
		patch: func(_ context.Context, _ *policy.Actor, _ *models.CourseCategory, req *models.UpdateCategoryRequest) (map[string]interface{}, error) {
			fields := map[string]interface{}{}
			setIf(fields, "name", req.Name)
			return fields, nil
		},
		duplicate: func(error) error {
			return duplicate("DUPLICATE_CATEGORY", "A category with this name already exists.")
		},
	})
}

// setIf records column = *value when value is set
func setIf[V any](fields map[string]interface{}, column string, value *V) {
	if value != nil {
		fields[column] = *value
	}
}
