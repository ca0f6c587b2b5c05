package app

import (
	"sort"

	"mpt-command-center/internal/domain"
)

// AssignRanks orders entries by total score and assigns sequential ranks.
// Ties go to whoever reached the score first, then to the lower user ID.
// PreviousRank is only replaced when the rank moves, so RankChange reports
// the latest movement. The input slice is not reordered.
func AssignRanks(entries []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	ranked := make([]domain.LeaderboardEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranksBefore(ranked[i], ranked[j])
	})

	for i := range ranked {
		newRank := i + 1
		if ranked[i].Rank != 0 && ranked[i].Rank != newRank {
			ranked[i].PreviousRank = ranked[i].Rank
		}
		ranked[i].Rank = newRank
		if ranked[i].PreviousRank > 0 {
			ranked[i].RankChange = ranked[i].PreviousRank - newRank
		} else {
			ranked[i].RankChange = 0
		}
	}
	return ranked
}

func ranksBefore(a, b domain.LeaderboardEntry) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.Before(b.UpdatedAt)
	}
	return a.UserID < b.UserID
}

// byRank sorts entries that already carry ranks; unranked entries go last.
func byRank(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := entries[i].Rank, entries[j].Rank
		switch {
		case ri == 0 && rj == 0:
			return ranksBefore(entries[i], entries[j])
		case ri == 0:
			return false
		case rj == 0:
			return true
		default:
			return ri < rj
		}
	})
}
