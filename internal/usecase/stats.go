package usecase

import "context"

// VerificationStats summarizes how a campaign's leads are verifying.
// Pending covers active verifications (pending + sent); Failed covers the
// failed and expired terminals.
type VerificationStats struct {
	Total            int     `json:"total"`
	Verified         int     `json:"verified"`
	Pending          int     `json:"pending"`
	Failed           int     `json:"failed"`
	VerificationRate float64 `json:"verification_rate"`
}

type VerificationStatsUseCase struct {
	Stats StatsRepositoryInterface
}

func NewVerificationStatsUseCase(stats StatsRepositoryInterface) *VerificationStatsUseCase {
	return &VerificationStatsUseCase{Stats: stats}
}

// Execute is a pure read over persisted lead + verification state.
func (uc *VerificationStatsUseCase) Execute(ctx context.Context, campaignID string) (*VerificationStats, error) {
	stats, err := uc.Stats.CountByCampaign(ctx, campaignID)
	if err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to aggregate stats: " + err.Error()}
	}

	if stats.Total > 0 {
		stats.VerificationRate = float64(stats.Verified) / float64(stats.Total)
	}
	return stats, nil
}
