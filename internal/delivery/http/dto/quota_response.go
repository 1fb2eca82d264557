package dto

import (
	"time"

	"jobdeck/internal/quota"
)

type QuotaPeriodResponse struct {
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

type QuotaStatusResponse struct {
	Daily   QuotaPeriodResponse `json:"daily"`
	Monthly QuotaPeriodResponse `json:"monthly"`
}

func NewQuotaStatusResponse(st quota.Status) QuotaStatusResponse {
	return QuotaStatusResponse{
		Daily: QuotaPeriodResponse{
			Used:      st.DailyUsed,
			Limit:     st.DailyLimit,
			Remaining: st.DailyRemaining,
			ResetAt:   st.DailyResetAt,
		},
		Monthly: QuotaPeriodResponse{
			Used:      st.MonthlyUsed,
			Limit:     st.MonthlyLimit,
			Remaining: st.MonthlyRemaining,
			ResetAt:   st.MonthlyResetAt,
		},
	}
}
