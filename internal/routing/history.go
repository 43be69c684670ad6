package routing

import (
	"cmp"
	"context"
	"slices"
)

const (
	historyDateLayout = "2 Jan, 2006"
	historyTimeLayout = "3:04 PM"
)

// HistoryDay groups the log entries written on one calendar day.
type HistoryDay struct {
	Date    string
	Entries []HistoryEntry
}

type HistoryEntry struct {
	Time  string
	Entry *LogEntry
}

// GroupHistory orders logs newest first and buckets them by day.
func GroupHistory(logs []*LogEntry) []HistoryDay {
	sorted := slices.Clone(logs)
	slices.SortStableFunc(sorted, func(a, b *LogEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(b.ID, a.ID)
	})

	var days []HistoryDay

	for _, l := range sorted {
		date := l.CreatedAt.Format(historyDateLayout)

		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, HistoryDay{Date: date})
		}

		last := &days[len(days)-1]
		last.Entries = append(last.Entries, HistoryEntry{
			Time:  l.CreatedAt.Format(historyTimeLayout),
			Entry: l,
		})
	}

	return days
}

func (s *Service) History(ctx context.Context, no string) ([]HistoryDay, error) {
	tx, err := s.repo.GetTransaction(ctx, no)
	if err != nil {
		return nil, err
	}

	return GroupHistory(tx.Logs), nil
}
