package repositories

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tabib.link/configs"
	"tabib.link/configs/configslog"
	"tabib.link/models"
	"tabib.link/pkg/queryparams"
)

// IRdvRepository is the rendez-vous persistence interface.
type IRdvRepository interface {
	Create(ctx context.Context, rdv *models.RendezVous) error
	FindByID(ctx context.Context, id uint) (*models.RendezVous, error)
	// ScheduledTimesForDay returns the scheduled times of a professional's
	// non-cancelled rendez-vous on the calendar day containing day,
	// evaluated in day's location. Input to the availability check.
	ScheduledTimesForDay(ctx context.Context, professionalID uint, day time.Time) ([]time.Time, error)
	FindAllByPatientPaginated(ctx context.Context, patientID uint, params queryparams.ListParams) ([]models.RendezVous, int64, error)
	FindAllByProfessionalPaginated(ctx context.Context, professionalID uint, params queryparams.ListParams) ([]models.RendezVous, int64, error)
	Update(ctx context.Context, rdv *models.RendezVous) error
	CountByProfessionalAndStatus(ctx context.Context, professionalID uint) (map[models.RdvStatus]int64, error)
	CountByStatus(ctx context.Context) (map[models.RdvStatus]int64, error)
	CountUpcomingByProfessional(ctx context.Context, professionalID uint, after time.Time) (int64, error)
	CountDistinctPatients(ctx context.Context, professionalID uint) (int64, error)
}

// RdvRepository implements IRdvRepository.
type RdvRepository struct {
	db   *gorm.DB
	base *BaseRepository[models.RendezVous]
}

// NewRdvRepository builds a repository on the shared connection.
func NewRdvRepository() IRdvRepository {
	return newRdvRepository(configs.GetDB())
}

// NewRdvRepositoryTx builds a repository bound to a transaction.
func NewRdvRepositoryTx(tx *gorm.DB) IRdvRepository {
	return newRdvRepository(tx)
}

func newRdvRepository(db *gorm.DB) *RdvRepository {
	base := NewBaseRepository[models.RendezVous](db)
	base.SetAllowedSortColumns([]string{"id", "created_at", "scheduled_at", "status"})
	return &RdvRepository{db: db, base: base}
}

func (r *RdvRepository) Create(ctx context.Context, rdv *models.RendezVous) error {
	if rdv == nil || rdv.PatientID == 0 || rdv.ProfessionalID == 0 {
		return errors.New("rendez-vous must reference a patient and a professional")
	}
	return r.base.Create(ctx, rdv)
}

func (r *RdvRepository) FindByID(ctx context.Context, id uint) (*models.RendezVous, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	var rdv models.RendezVous
	err := r.db.WithContext(ctx).Preload("Annonce").First(&rdv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		configslog.Log.Error("RdvRepository.FindByID: DB error", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &rdv, nil
}

func (r *RdvRepository) ScheduledTimesForDay(ctx context.Context, professionalID uint, day time.Time) ([]time.Time, error) {
	if professionalID == 0 {
		return nil, errors.New("invalid professional id")
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var times []time.Time
	err := r.db.WithContext(ctx).Model(&models.RendezVous{}).
		Where("professional_id = ?", professionalID).
		Where("status <> ?", models.RdvStatusCancelled).
		Where("scheduled_at >= ? AND scheduled_at < ?", dayStart, dayEnd).
		Order("scheduled_at asc").
		Pluck("scheduled_at", &times).Error
	if err != nil {
		configslog.Log.Error("RdvRepository.ScheduledTimesForDay: DB error",
			zap.Uint("professional_id", professionalID), zap.Error(err))
		return nil, err
	}
	return times, nil
}

func (r *RdvRepository) FindAllByPatientPaginated(ctx context.Context, patientID uint, params queryparams.ListParams) ([]models.RendezVous, int64, error) {
	return r.findAllPaginated(ctx, "patient_id", patientID, params)
}

func (r *RdvRepository) FindAllByProfessionalPaginated(ctx context.Context, professionalID uint, params queryparams.ListParams) ([]models.RendezVous, int64, error) {
	return r.findAllPaginated(ctx, "professional_id", professionalID, params)
}

func (r *RdvRepository) findAllPaginated(ctx context.Context, column string, id uint, params queryparams.ListParams) ([]models.RendezVous, int64, error) {
	if id == 0 {
		return nil, 0, errors.New("invalid user id")
	}
	var rdvs []models.RendezVous
	var totalCount int64

	query := r.db.WithContext(ctx).Model(&models.RendezVous{}).Where(column+" = ?", id)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	if err := query.Count(&totalCount).Error; err != nil {
		configslog.Log.Error("RdvRepository.findAllPaginated: count error", zap.Error(err))
		return nil, 0, err
	}
	if totalCount == 0 {
		return rdvs, 0, nil
	}

	order := r.base.OrderExpr(params.SortBy, params.OrderBy, "scheduled_at")
	err := query.Order(order).
		Preload("Annonce").
		Limit(params.PerPage).Offset(params.CalculateOffset()).
		Find(&rdvs).Error
	if err != nil {
		configslog.Log.Error("RdvRepository.findAllPaginated: find error", zap.Error(err))
		return nil, totalCount, err
	}
	return rdvs, totalCount, nil
}

func (r *RdvRepository) Update(ctx context.Context, rdv *models.RendezVous) error {
	if rdv == nil || rdv.ID == 0 {
		return errors.New("invalid rendez-vous for update")
	}
	return r.base.Save(ctx, rdv)
}

func (r *RdvRepository) CountByProfessionalAndStatus(ctx context.Context, professionalID uint) (map[models.RdvStatus]int64, error) {
	return r.countByStatus(ctx, r.db.WithContext(ctx).Model(&models.RendezVous{}).Where("professional_id = ?", professionalID))
}

func (r *RdvRepository) CountByStatus(ctx context.Context) (map[models.RdvStatus]int64, error) {
	return r.countByStatus(ctx, r.db.WithContext(ctx).Model(&models.RendezVous{}))
}

func (r *RdvRepository) countByStatus(_ context.Context, query *gorm.DB) (map[models.RdvStatus]int64, error) {
	type row struct {
		Status models.RdvStatus
		Count  int64
	}
	var rows []row
	if err := query.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[models.RdvStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

func (r *RdvRepository) CountUpcomingByProfessional(ctx context.Context, professionalID uint, after time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RendezVous{}).
		Where("professional_id = ?", professionalID).
		Where("scheduled_at > ?", after).
		Where("status IN ?", []models.RdvStatus{models.RdvStatusPending, models.RdvStatusConfirmed}).
		Count(&count).Error
	return count, err
}

func (r *RdvRepository) CountDistinctPatients(ctx context.Context, professionalID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RendezVous{}).
		Where("professional_id = ?", professionalID).
		Distinct("patient_id").
		Count(&count).Error
	return count, err
}

var _ IRdvRepository = (*RdvRepository)(nil)
