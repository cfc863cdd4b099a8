package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

type ActivityLogger interface {
	Execute(ctx context.Context, in LogActivityInput) (*domain.ActivityRecord, error)
}

type RecurringCreator interface {
	Execute(ctx context.Context, in CreateRecurringInput) (*domain.RecurringTemplate, error)
}

type FriendAdder interface {
	Execute(ctx context.Context, userID, name, friendID string) (domain.UserProfile, error)
}

type LeaderboardRenderer interface {
	Execute(ctx context.Context, p domain.PeriodType) (string, error)
	ExecuteFriends(ctx context.Context, userID string, p domain.PeriodType) (string, error)
	ExecuteUser(ctx context.Context, userID string, p domain.PeriodType) (string, error)
	ExecuteReset(ctx context.Context, p domain.PeriodType) (string, error)
}

const (
	usageLog       = "Usage: #log <co2 kg> [water L] [electricity kWh]"
	usageRecurring = "Usage: #recurring <co2 kg> <water L> <electricity kWh> <times per week> [weeks per year]"
	usageAddFriend = "Usage: #addfriend <user id>"
)

// HandleMessageUsecase routes chat commands. Anything that is not a known
// command gets no reply.
type HandleMessageUsecase struct {
	users    domain.UserRepository
	logUC    ActivityLogger
	recurUC  RecurringCreator
	friendUC FriendAdder
	boardUC  LeaderboardRenderer
}

func NewHandleMessageUsecase(users domain.UserRepository, logUC ActivityLogger, recurUC RecurringCreator, friendUC FriendAdder, boardUC LeaderboardRenderer) *HandleMessageUsecase {
	return &HandleMessageUsecase{
		users:    users,
		logUC:    logUC,
		recurUC:  recurUC,
		friendUC: friendUC,
		boardUC:  boardUC,
	}
}

func (uc *HandleMessageUsecase) Execute(ctx context.Context, userID, name, msg string) (string, error) {
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "#log":
		return uc.handleLog(ctx, userID, name, args)
	case "#recurring":
		return uc.handleRecurring(ctx, userID, name, args)
	case "#addfriend":
		return uc.handleAddFriend(ctx, userID, name, args)
	case "#leaderboard", "#friends", "#me", "#reset":
	default:
		return "", nil
	}

	p := domain.PeriodWeekly
	if len(args) > 0 {
		var err error
		if p, err = domain.ParsePeriodType(args[0]); err != nil {
			return userReply(err)
		}
	}

	var (
		out string
		err error
	)
	switch cmd {
	case "#leaderboard":
		out, err = uc.boardUC.Execute(ctx, p)
	case "#friends":
		if err = uc.users.EnsureUser(ctx, userID, name); err != nil {
			return "", err
		}
		out, err = uc.boardUC.ExecuteFriends(ctx, userID, p)
	case "#me":
		if err = uc.users.EnsureUser(ctx, userID, name); err != nil {
			return "", err
		}
		out, err = uc.boardUC.ExecuteUser(ctx, userID, p)
	case "#reset":
		out, err = uc.boardUC.ExecuteReset(ctx, p)
	}
	if err != nil {
		return userReply(err)
	}
	return out, nil
}

func (uc *HandleMessageUsecase) handleLog(ctx context.Context, userID, name string, args []string) (string, error) {
	if len(args) < 1 || len(args) > 3 {
		return usageLog, nil
	}
	values, ok := parseNumbers(args)
	if !ok {
		return usageLog, nil
	}
	values = append(values, 0, 0)

	rec, err := uc.logUC.Execute(ctx, LogActivityInput{
		UserID:            userID,
		Name:              name,
		Co2Impact:         values[0],
		WaterImpact:       values[1],
		ElectricityImpact: values[2],
	})
	if err != nil {
		return userReply(err)
	}
	return fmt.Sprintf("✅ Logged for %s on %s: %.1f kg CO₂, %.0f L water, %.1f kWh. Keep it green 🌱",
		name, rec.OccurredOn.Format("02-01-2006"), rec.Co2Impact, rec.WaterImpact, rec.ElectricityImpact), nil
}

func (uc *HandleMessageUsecase) handleRecurring(ctx context.Context, userID, name string, args []string) (string, error) {
	if len(args) < 4 || len(args) > 5 {
		return usageRecurring, nil
	}
	values, ok := parseNumbers(args[:3])
	if !ok {
		return usageRecurring, nil
	}
	times, err := strconv.Atoi(args[3])
	if err != nil {
		return usageRecurring, nil
	}
	weeks := 0
	if len(args) == 5 {
		if weeks, err = strconv.Atoi(args[4]); err != nil {
			return usageRecurring, nil
		}
	}

	tmpl, err := uc.recurUC.Execute(ctx, CreateRecurringInput{
		UserID:            userID,
		Name:              name,
		Co2Impact:         values[0],
		WaterImpact:       values[1],
		ElectricityImpact: values[2],
		TimesPerWeek:      times,
		WeeksPerYear:      weeks,
	})
	if err != nil {
		return userReply(err)
	}
	return fmt.Sprintf("🔁 Recurring activity saved for %s: %dx per week, %d weeks per year, counted daily from %s",
		name, tmpl.Recurrence.TimesPerWeek, tmpl.Recurrence.WeeksPerYear, tmpl.StartOn.Format("02-01-2006")), nil
}

func (uc *HandleMessageUsecase) handleAddFriend(ctx context.Context, userID, name string, args []string) (string, error) {
	if len(args) != 1 {
		return usageAddFriend, nil
	}
	friend, err := uc.friendUC.Execute(ctx, userID, name, strings.TrimPrefix(args[0], "@"))
	if err != nil {
		return userReply(err)
	}
	return fmt.Sprintf("🤝 %s and %s are now friends", name, friend.DisplayName()), nil
}

// userReply turns domain errors a sender can fix into a chat reply and passes
// everything else up.
func userReply(err error) (string, error) {
	switch domain.CodeOf(err) {
	case domain.CodeNotFound, domain.CodeValidation, domain.CodeNegativeImpact, domain.CodeInvalidPeriod:
		return "⚠️ " + domainMessage(err), nil
	}
	return "", err
}

func domainMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// parseNumbers accepts a decimal comma as well as a point.
func parseNumbers(args []string) ([]float64, bool) {
	out := make([]float64, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseFloat(strings.ReplaceAll(a, ",", "."), 64)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}
