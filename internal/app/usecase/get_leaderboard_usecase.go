package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

// LeaderboardReader is the read side of LeaderboardService.
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, p domain.PeriodType) ([]domain.LeaderboardEntry, error)
	GetLeaderboardForUserAndFriends(ctx context.Context, userID string, p domain.PeriodType) ([]domain.LeaderboardEntry, error)
	GetUserEntry(ctx context.Context, userID string, p domain.PeriodType) (domain.LeaderboardEntry, error)
	GetTimeUntilReset(ctx context.Context, p domain.PeriodType) (domain.ResetCountdown, error)
}

// GetLeaderboardUsecase renders leaderboard reads as chat messages.
type GetLeaderboardUsecase struct {
	board LeaderboardReader
}

func NewGetLeaderboardUsecase(board LeaderboardReader) *GetLeaderboardUsecase {
	return &GetLeaderboardUsecase{board: board}
}

func (uc *GetLeaderboardUsecase) Execute(ctx context.Context, p domain.PeriodType) (string, error) {
	entries, err := uc.board.GetLeaderboard(ctx, p)
	if err != nil {
		return "", err
	}
	return uc.render(ctx, fmt.Sprintf("🌍 EcoTrace Leaderboard - %s", periodLabel(p)), p, entries)
}

func (uc *GetLeaderboardUsecase) ExecuteFriends(ctx context.Context, userID string, p domain.PeriodType) (string, error) {
	entries, err := uc.board.GetLeaderboardForUserAndFriends(ctx, userID, p)
	if err != nil {
		return "", err
	}
	return uc.render(ctx, fmt.Sprintf("🤝 Friends Leaderboard - %s", periodLabel(p)), p, entries)
}

func (uc *GetLeaderboardUsecase) ExecuteUser(ctx context.Context, userID string, p domain.PeriodType) (string, error) {
	e, err := uc.board.GetUserEntry(ctx, userID, p)
	if err != nil {
		return "", err
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("📊 %s - %s\n", e.FullName, periodLabel(p)))
	sb.WriteString(fmt.Sprintf("CO₂: %.1f kg | Water: %.0f L | Electricity: %.1f kWh\n", e.TotalCo2, e.TotalWater, e.TotalElectricity))
	sb.WriteString(fmt.Sprintf("Days tracked: %d/%d\n", e.DaysTracked, e.DaysRequired))
	sb.WriteString(standing(e))
	return sb.String(), nil
}

func (uc *GetLeaderboardUsecase) ExecuteReset(ctx context.Context, p domain.PeriodType) (string, error) {
	cd, err := uc.board.GetTimeUntilReset(ctx, p)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("⏳ %s leaderboard resets in %s", periodName(p), FormatTimeRemaining(cd.TimeRemaining)), nil
}

func (uc *GetLeaderboardUsecase) render(ctx context.Context, title string, p domain.PeriodType, entries []domain.LeaderboardEntry) (string, error) {
	cd, err := uc.board.GetTimeUntilReset(ctx, p)
	if err != nil {
		return "", err
	}

	sb := strings.Builder{}
	sb.WriteString(title + "\n")
	sb.WriteString(fmt.Sprintf("Resets in %s\n\n", FormatTimeRemaining(cd.TimeRemaining)))

	if len(entries) == 0 {
		sb.WriteString("No activity logged yet. Use #log to get on the board 🌱")
		return sb.String(), nil
	}

	var waiting []domain.LeaderboardEntry
	for _, e := range entries {
		if !e.Ranked() {
			waiting = append(waiting, e)
			continue
		}
		sb.WriteString(fmt.Sprintf("%d. %s - %.1f kg CO₂%s\n", e.Rank, e.FullName, e.TotalCo2, medal(e.Rank)))
	}

	if len(waiting) > 0 {
		sb.WriteString("\nNot ranked yet:\n")
		for _, e := range waiting {
			if !e.IsValid {
				sb.WriteString(fmt.Sprintf("- %s - disqualified ❌\n", e.FullName))
				continue
			}
			sb.WriteString(fmt.Sprintf("- %s - %d/%d days tracked\n", e.FullName, e.DaysTracked, e.DaysRequired))
		}
	}

	sb.WriteString("\nLower CO₂ ranks higher. Keep logging daily 🌱")
	return sb.String(), nil
}

// FormatTimeRemaining shortens a countdown to its two or three most
// significant units, e.g. "3d 4h 5m", "4h 5m 6s", "5m 6s" or "6s".
func FormatTimeRemaining(tr domain.TimeRemaining) string {
	switch {
	case tr.Days > 0:
		return fmt.Sprintf("%dd %dh %dm", tr.Days, tr.Hours, tr.Minutes)
	case tr.Hours > 0:
		return fmt.Sprintf("%dh %dm %ds", tr.Hours, tr.Minutes, tr.Seconds)
	case tr.Minutes > 0:
		return fmt.Sprintf("%dm %ds", tr.Minutes, tr.Seconds)
	default:
		return fmt.Sprintf("%ds", tr.Seconds)
	}
}

func standing(e domain.LeaderboardEntry) string {
	switch {
	case e.Ranked():
		return fmt.Sprintf("Rank: #%d%s", e.Rank, medal(e.Rank))
	case e.DisqualificationReason != nil:
		return "Disqualified ❌ " + *e.DisqualificationReason
	default:
		return fmt.Sprintf("Not ranked yet, %d more day(s) to go", max(e.DaysRequired-e.DaysTracked, 0))
	}
}

func medal(rank int) string {
	switch rank {
	case 1:
		return " 🥇"
	case 2:
		return " 🥈"
	case 3:
		return " 🥉"
	}
	return ""
}

func periodLabel(p domain.PeriodType) string {
	switch p {
	case domain.PeriodDaily:
		return "Today"
	case domain.PeriodWeekly:
		return "This Week"
	case domain.PeriodMonthly:
		return "This Month"
	case domain.PeriodYearly:
		return "This Year"
	}
	return p.String()
}

func periodName(p domain.PeriodType) string {
	switch p {
	case domain.PeriodDaily:
		return "Daily"
	case domain.PeriodWeekly:
		return "Weekly"
	case domain.PeriodMonthly:
		return "Monthly"
	case domain.PeriodYearly:
		return "Yearly"
	}
	return p.String()
}
