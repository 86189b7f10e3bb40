package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/prediction"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/subscription"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/metrics"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/resilience"
)

// Messenger delivers one text message to a chat. The Telegram adapter
// implements it; tests substitute a stub.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// NotificationService owns match subscriptions and the pre/post match
// messages sent to subscribers. Delivery is best-effort per subscriber
// and exactly-once per subscription through the persisted notified
// flags.
type NotificationService struct {
	subscriptions subscription.Repository
	predictions   prediction.Repository
	messenger     Messenger
	transientDB   func(error) bool
	dbRetry       resilience.RetryConfig
	logger        *logging.Logger
}

func NewNotificationService(
	subscriptions subscription.Repository,
	predictions prediction.Repository,
	messenger Messenger,
	transientDB func(error) bool,
	dbRetry resilience.RetryConfig,
	logger *logging.Logger,
) *NotificationService {
	if transientDB == nil {
		transientDB = func(error) bool { return false }
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &NotificationService{
		subscriptions: subscriptions,
		predictions:   predictions,
		messenger:     messenger,
		transientDB:   transientDB,
		dbRetry:       dbRetry,
		logger:        logger,
	}
}

func (s *NotificationService) retryCfg(label string) resilience.RetryConfig {
	cfg := s.dbRetry
	cfg.Label = label
	cfg.Logger = s.logger
	return cfg
}

func (s *NotificationService) Subscribe(ctx context.Context, userID, chatID, matchID int64) error {
	if userID <= 0 || chatID <= 0 || matchID <= 0 {
		return fmt.Errorf("%w: user, chat and match ids are required", ErrInvalidInput)
	}
	_, err := resilience.RetryClassified(ctx, s.retryCfg("subscribe"), s.transientDB, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.subscriptions.Subscribe(ctx, userID, chatID, matchID)
	})
	return err
}

func (s *NotificationService) Unsubscribe(ctx context.Context, userID, matchID int64) error {
	if userID <= 0 || matchID <= 0 {
		return fmt.Errorf("%w: user and match ids are required", ErrInvalidInput)
	}
	_, err := resilience.RetryClassified(ctx, s.retryCfg("unsubscribe"), s.transientDB, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.subscriptions.Unsubscribe(ctx, userID, matchID)
	})
	return err
}

func (s *NotificationService) IsSubscribed(ctx context.Context, userID, matchID int64) (bool, error) {
	return resilience.RetryClassified(ctx, s.retryCfg("is-subscribed"), s.transientDB, func(ctx context.Context) (bool, error) {
		return s.subscriptions.IsSubscribed(ctx, userID, matchID)
	})
}

// SendPreMatchReminders messages every subscriber of the match whose
// pre-match flag is still unset. A delivery failure skips that
// subscriber and leaves the flag unset so a later pass can retry.
// Returns the number of messages delivered.
func (s *NotificationService) SendPreMatchReminders(ctx context.Context, m match.Match) (int, error) {
	pending, err := s.subscriptions.ListPendingPre(ctx, m.ID)
	if err != nil {
		return 0, fmt.Errorf("list pending pre-match subscriptions match_id=%d: %w", m.ID, err)
	}

	text := preMatchText(m)
	return s.deliver(ctx, "pre", pending, text, nil, s.subscriptions.MarkNotifiedPre)
}

// SendPostMatchResults messages subscribers with the final score and,
// when the user saved predictions for the match, how those predictions
// fared.
func (s *NotificationService) SendPostMatchResults(ctx context.Context, m match.Match) (int, error) {
	pending, err := s.subscriptions.ListPendingPost(ctx, m.ID)
	if err != nil {
		return 0, fmt.Errorf("list pending post-match subscriptions match_id=%d: %w", m.ID, err)
	}

	base := postMatchText(m)
	perUser := func(ctx context.Context, sub subscription.Subscription) string {
		picked, err := s.predictions.ListPickedByUser(ctx, sub.UserID, m.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "load user predictions for result message failed",
				"user_id", sub.UserID, "match_id", m.ID, "error", err)
			return base
		}
		return base + predictionOutcomeText(picked)
	}
	return s.deliver(ctx, "post", pending, base, perUser, s.subscriptions.MarkNotifiedPost)
}

func (s *NotificationService) deliver(
	ctx context.Context,
	kind string,
	pending []subscription.Subscription,
	text string,
	perUser func(context.Context, subscription.Subscription) string,
	mark func(context.Context, int64) error,
) (int, error) {
	sent := 0
	for _, sub := range pending {
		body := text
		if perUser != nil {
			body = perUser(ctx, sub)
		}

		if err := s.messenger.Send(ctx, sub.ChatID, body); err != nil {
			metrics.NotificationFailures.WithLabelValues(kind).Inc()
			s.logger.WarnContext(ctx, "notification delivery failed",
				"kind", kind, "chat_id", sub.ChatID, "match_id", sub.MatchID, "error", err)
			continue
		}

		metrics.NotificationsSent.WithLabelValues(kind).Inc()
		sent++

		if _, err := resilience.RetryClassified(ctx, s.retryCfg("mark-notified-"+kind), s.transientDB, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, mark(ctx, sub.ID)
		}); err != nil {
			// The message went out; a stale flag risks a duplicate on
			// the next pass, which is preferable to a silent drop.
			s.logger.ErrorContext(ctx, "mark subscription notified failed",
				"kind", kind, "subscription_id", sub.ID, "error", err)
		}
	}
	return sent, nil
}

func preMatchText(m match.Match) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("Kickoff soon: ")
	buf.WriteString(m.HomeTeam)
	buf.WriteString(" vs ")
	buf.WriteString(m.AwayTeam)
	if m.CompetitionName != "" {
		buf.WriteString(" (")
		buf.WriteString(m.CompetitionName)
		buf.WriteString(")")
	}
	buf.WriteString("\nStarts at ")
	buf.WriteString(m.KickoffAt.UTC().Format(time.RFC1123))
	return buf.String()
}

func postMatchText(m match.Match) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("Full time: ")
	buf.WriteString(m.HomeTeam)
	buf.WriteString(" ")
	if m.HasFinalScore() {
		buf.WriteString(strconv.Itoa(*m.HomeScore))
		buf.WriteString(" - ")
		buf.WriteString(strconv.Itoa(*m.AwayScore))
	} else {
		buf.WriteString(m.Status)
	}
	buf.WriteString(" ")
	buf.WriteString(m.AwayTeam)
	return buf.String()
}

func predictionOutcomeText(picked []prediction.Prediction) string {
	if len(picked) == 0 {
		return ""
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("\n\nYour predictions:")
	for _, p := range picked {
		buf.WriteString("\n- ")
		buf.WriteString(string(p.Type))
		buf.WriteString(": ")
		buf.WriteString(predictionVerdict(p))
	}
	return buf.String()
}

func predictionVerdict(p prediction.Prediction) string {
	if p.Accuracy == nil {
		return "not evaluated"
	}

	verdict := func(v *bool) string {
		switch {
		case v == nil:
			return ""
		case *v:
			return "correct"
		default:
			return "missed"
		}
	}

	switch p.Type {
	case prediction.TypeOutcome:
		if s := verdict(p.Accuracy.OutcomeCorrect); s != "" {
			return s
		}
	case prediction.TypeTotal:
		if s := verdict(p.Accuracy.GoalsOverUnderCorrect); s != "" {
			return s
		}
	case prediction.TypeBTTS:
		if s := verdict(p.Accuracy.BTTSCorrect); s != "" {
			return s
		}
	case prediction.TypeGoals:
		over := verdict(p.Accuracy.GoalsOverUnderCorrect)
		btts := verdict(p.Accuracy.BTTSCorrect)
		if over != "" || btts != "" {
			return fmt.Sprintf("over/under %s, both-to-score %s", orUnknown(over), orUnknown(btts))
		}
	}
	return "not evaluated"
}

func orUnknown(s string) string {
	if s == "" {
		return "not evaluated"
	}
	return s
}
