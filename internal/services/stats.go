package services

import (
	"context"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/models"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/store"
)

// Stats aggregates the dashboard numbers.
type Stats struct {
	st *store.Store
}

func NewStats(st *store.Store) *Stats {
	return &Stats{st: st}
}

type SessionCount struct {
	SessionID string `json:"session_id"`
	Label     string `json:"label"`
	Date      string `json:"date"`
	CheckIns  int    `json:"check_ins"`
}

type Overview struct {
	TotalChildren      int             `json:"total_children"`
	TotalSessions      int             `json:"total_sessions"`
	SessionsByCategory map[string]int  `json:"sessions_by_category"`
	PerSession         []SessionCount  `json:"per_session"` // most recent first
	OpenSession        *models.Session `json:"open_session,omitempty"`
	LiveHeadcount      int             `json:"live_headcount"`
}

func (s *Stats) Overview(ctx context.Context) (*Overview, error) {
	children, err := s.st.ListChildren(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.st.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		TotalChildren:      len(children),
		TotalSessions:      len(sessions),
		SessionsByCategory: make(map[string]int),
	}

	for _, ss := range sessions {
		ov.SessionsByCategory[ss.Category]++

		recs, err := s.st.ListPresence(ctx, store.PresenceFilter{SessionID: ss.ID})
		if err != nil {
			return nil, err
		}
		ov.PerSession = append(ov.PerSession, SessionCount{
			SessionID: ss.ID,
			Label:     ss.DisplayCategory(),
			Date:      ss.Date.Format("2006-01-02"),
			CheckIns:  len(recs),
		})

		if ss.Status == models.SessionOpen {
			ov.OpenSession = &ss
			for _, r := range recs {
				if r.Status == models.PresencePresent {
					ov.LiveHeadcount++
				}
			}
		}
	}
	return ov, nil
}
