package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

// CounsellorRepository stores calls and their analyses.
type CounsellorRepository struct {
	*StaffRepository
}

var _ ports.CounsellorRepository = (*CounsellorRepository)(nil)

// NewCounsellorRepository creates a counsellor repository.
func NewCounsellorRepository(db *gorm.DB) *CounsellorRepository {
	return &CounsellorRepository{StaffRepository: NewStaffRepository(db)}
}

func (r *CounsellorRepository) CreateCall(ctx context.Context, call domain.NewCall) (*domain.Call, error) {
	var out *domain.Call

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counsellor counsellorModel
		if err := tx.Where("id = ?", call.CounsellorID).First(&counsellor).Error; err != nil {
			return notFound(err, "counsellor", call.CounsellorID, "Counsellor not found")
		}

		row := callModel{
			CounsellorID: counsellor.ID,
			AuditorID:    counsellor.AuditorID,
			ManagerID:    counsellor.ManagerID,
			CallStart:    call.CallStart.UTC(),
			CallEnd:      call.CallEnd,
			Duration:     &call.Duration,
			CallType:     optional(call.CallType),
			ClientNumber: call.ClientNumber,
			Flag:         string(domain.FlagNormal),
			Tags:         call.Tags,
		}

		if err := tx.Create(&row).Error; err != nil {
			return writeError(err, "call", "counsellor_id", call.CounsellorID)
		}

		out = row.toDomain()

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *CounsellorRepository) CallByID(ctx context.Context, id string) (*domain.Call, error) {
	var row callModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, notFound(err, "call", id, "")
	}

	return row.toDomain(), nil
}

func (r *CounsellorRepository) SetRecordingURL(ctx context.Context, callID, url string) error {
	res := r.db.WithContext(ctx).Model(&callModel{}).Where("id = ?", callID).
		Updates(map[string]any{"recording_url": url})
	if res.Error != nil {
		return writeError(res.Error, "call", "id", callID)
	}

	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("call", callID)
	}

	return nil
}

// SaveAnalysis upserts on call_id so reprocessing a call replaces its analysis.
func (r *CounsellorRepository) SaveAnalysis(ctx context.Context, analysis *domain.CallAnalysis) error {
	row := callAnalysisModel{
		CallID:         analysis.CallID,
		SentimentScore: analysis.SentimentScore,
		Transcript:     optional(analysis.Transcript),
		Summary:        optional(analysis.Summary),
		Anomalies:      optional(analysis.Anomalies),
		Keywords:       analysis.Keywords,
		AIConfidence:   analysis.AIConfidence,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "call_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sentiment_score", "transcript", "summary", "anomalies",
			"keywords", "ai_confidence", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return writeError(err, "call analysis", "call_id", analysis.CallID)
	}

	// On conflict the stored row keeps its original id.
	var stored callAnalysisModel
	if err := r.db.WithContext(ctx).Where("call_id = ?", analysis.CallID).First(&stored).Error; err != nil {
		return notFound(err, "call analysis", analysis.CallID, "")
	}

	analysis.ID = stored.ID
	analysis.CreatedAt = stored.CreatedAt
	analysis.UpdatedAt = stored.UpdatedAt

	return nil
}
