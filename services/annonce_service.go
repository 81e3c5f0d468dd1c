package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs"
	"tabib.link/configs/configslog"
	"tabib.link/models"
	"tabib.link/pkg/queryparams"
	"tabib.link/repositories"
)

// AnnonceServiceError is the typed error for annonce operations.
type AnnonceServiceError string

func (e AnnonceServiceError) Error() string { return string(e) }

const (
	ErrAnnonceNotFound     AnnonceServiceError = "annonce not found"
	ErrAnnonceInvalidInput AnnonceServiceError = "invalid annonce data"
	ErrAnnonceForbidden    AnnonceServiceError = "not allowed to act on this annonce"
)

// AnnonceInput carries the editable annonce fields.
type AnnonceInput struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DiscountPercent int     `json:"discount_percent"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

// IAnnonceService is the annonce business interface.
type IAnnonceService interface {
	CreateAnnonce(ctx context.Context, ownerID uint, input AnnonceInput) (*models.Annonce, error)
	GetAnnonceByID(ctx context.Context, id uint) (*models.Annonce, error)
	GetAnnoncesForOwner(ctx context.Context, ownerID uint, params queryparams.ListParams) (*queryparams.PaginatedResult, error)
	GetActiveAnnonces(ctx context.Context, params queryparams.ListParams) (*queryparams.PaginatedResult, error)
	UpdateAnnonce(ctx context.Context, id uint, actingUserID uint, input AnnonceInput) (*models.Annonce, error)
	DeleteAnnonce(ctx context.Context, id uint, actingUserID uint) error
}

// AnnonceService implements IAnnonceService.
type AnnonceService struct {
	repo     repositories.IAnnonceRepository
	userRepo repositories.IUserRepository
	db       *gorm.DB
}

// NewAnnonceService builds the service on the shared connection.
func NewAnnonceService() IAnnonceService {
	return newAnnonceService(configs.GetDB())
}

func newAnnonceService(db *gorm.DB) *AnnonceService {
	return &AnnonceService{
		repo:     repositories.NewAnnonceRepositoryTx(db),
		userRepo: repositories.NewUserRepositoryTx(db),
		db:       db,
	}
}

func validateAnnonceInput(input AnnonceInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrAnnonceInvalidInput)
	}
	if input.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrAnnonceInvalidInput)
	}
	if input.DiscountPercent < 0 || input.DiscountPercent > 100 {
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrAnnonceInvalidInput)
	}
	return nil
}

func (s *AnnonceService) CreateAnnonce(ctx context.Context, ownerID uint, input AnnonceInput) (*models.Annonce, error) {
	if err := validateAnnonceInput(input); err != nil {
		return nil, err
	}
	owner, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil || !owner.Role.Professional() {
		return nil, ErrAnnonceForbidden
	}

	annonce := models.Annonce{
		OwnerID:         ownerID,
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		Price:           input.Price,
		DiscountPercent: input.DiscountPercent,
		IsActive:        true,
	}
	if input.IsActive != nil {
		annonce.IsActive = *input.IsActive
	}

	if err := s.repo.Create(models.ContextWithUserID(ctx, ownerID), &annonce); err != nil {
		configslog.Log.Error("annonce create failed", zap.Uint("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	configslog.SLog.Infof("annonce created: id=%d owner=%d", annonce.ID, ownerID)
	return &annonce, nil
}

func (s *AnnonceService) GetAnnonceByID(ctx context.Context, id uint) (*models.Annonce, error) {
	annonce, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAnnonceNotFound
		}
		return nil, err
	}
	return annonce, nil
}

func (s *AnnonceService) GetAnnoncesForOwner(ctx context.Context, ownerID uint, params queryparams.ListParams) (*queryparams.PaginatedResult, error) {
	params.Validate()
	annonces, totalCount, err := s.repo.FindAllByOwnerPaginated(ctx, ownerID, params)
	if err != nil {
		return nil, err
	}
	return paginated(annonces, totalCount, params), nil
}

func (s *AnnonceService) GetActiveAnnonces(ctx context.Context, params queryparams.ListParams) (*queryparams.PaginatedResult, error) {
	params.Validate()
	annonces, totalCount, err := s.repo.FindAllActivePaginated(ctx, params)
	if err != nil {
		return nil, err
	}
	return paginated(annonces, totalCount, params), nil
}

func (s *AnnonceService) UpdateAnnonce(ctx context.Context, id uint, actingUserID uint, input AnnonceInput) (*models.Annonce, error) {
	if err := validateAnnonceInput(input); err != nil {
		return nil, err
	}
	annonce, err := s.GetAnnonceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if annonce.OwnerID != actingUserID {
		return nil, ErrAnnonceForbidden
	}

	annonce.Title = strings.TrimSpace(input.Title)
	annonce.Description = input.Description
	annonce.Price = input.Price
	annonce.DiscountPercent = input.DiscountPercent
	if input.IsActive != nil {
		annonce.IsActive = *input.IsActive
	}

	if err := s.repo.Update(models.ContextWithUserID(ctx, actingUserID), annonce); err != nil {
		configslog.Log.Error("annonce update failed", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return annonce, nil
}

func (s *AnnonceService) DeleteAnnonce(ctx context.Context, id uint, actingUserID uint) error {
	annonce, err := s.GetAnnonceByID(ctx, id)
	if err != nil {
		return err
	}
	if annonce.OwnerID != actingUserID {
		return ErrAnnonceForbidden
	}
	if err := s.repo.Delete(models.ContextWithUserID(ctx, actingUserID), annonce, actingUserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAnnonceNotFound
		}
		configslog.Log.Error("annonce delete failed", zap.Uint("id", id), zap.Error(err))
		return err
	}
	configslog.SLog.Infof("annonce deleted: id=%d by=%d", id, actingUserID)
	return nil
}

var _ IAnnonceService = (*AnnonceService)(nil)
