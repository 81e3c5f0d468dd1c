package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tabib.link/configs"
	"tabib.link/models"
	"tabib.link/repositories"
)

// ProfessionalStats is the per-professional dashboard snapshot.
type ProfessionalStats struct {
	RdvByStatus      map[models.RdvStatus]int64 `json:"rdv_by_status"`
	UpcomingRdvs     int64                      `json:"upcoming_rdvs"`
	DistinctPatients int64                      `json:"distinct_patients"`
	ActiveAnnonces   int64                      `json:"active_annonces"`
}

// AdminStats is the platform-wide snapshot.
type AdminStats struct {
	UsersByRole map[models.Role]int64      `json:"users_by_role"`
	RdvByStatus map[models.RdvStatus]int64 `json:"rdv_by_status"`
}

// IStatsService is the statistics interface.
type IStatsService interface {
	ProfessionalStats(ctx context.Context, professionalID uint) (*ProfessionalStats, error)
	AdminStats(ctx context.Context) (*AdminStats, error)
}

// StatsService implements IStatsService as straight aggregate reads.
type StatsService struct {
	rdvRepo     repositories.IRdvRepository
	userRepo    repositories.IUserRepository
	annonceRepo repositories.IAnnonceRepository
}

// NewStatsService builds the service on the shared connection.
func NewStatsService() IStatsService {
	return newStatsService(configs.GetDB())
}

func newStatsService(db *gorm.DB) *StatsService {
	return &StatsService{
		rdvRepo:     repositories.NewRdvRepositoryTx(db),
		userRepo:    repositories.NewUserRepositoryTx(db),
		annonceRepo: repositories.NewAnnonceRepositoryTx(db),
	}
}

func (s *StatsService) ProfessionalStats(ctx context.Context, professionalID uint) (*ProfessionalStats, error) {
	byStatus, err := s.rdvRepo.CountByProfessionalAndStatus(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.rdvRepo.CountUpcomingByProfessional(ctx, professionalID, time.Now())
	if err != nil {
		return nil, err
	}
	patients, err := s.rdvRepo.CountDistinctPatients(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	annonces, err := s.annonceRepo.CountActiveByOwner(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	return &ProfessionalStats{
		RdvByStatus:      byStatus,
		UpcomingRdvs:     upcoming,
		DistinctPatients: patients,
		ActiveAnnonces:   annonces,
	}, nil
}

func (s *StatsService) AdminStats(ctx context.Context) (*AdminStats, error) {
	usersByRole, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	rdvByStatus, err := s.rdvRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminStats{UsersByRole: usersByRole, RdvByStatus: rdvByStatus}, nil
}

var _ IStatsService = (*StatsService)(nil)
