package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/usecase"
)

// SyncRunner triggers a full sync cycle out of band of the daily cron.
type SyncRunner interface {
	RunFullSync(ctx context.Context)
}

type Handler struct {
	matchData *usecase.MatchDataService
	accuracy  *usecase.AccuracyService
	sync      SyncRunner
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(
	matchData *usecase.MatchDataService,
	accuracy *usecase.AccuracyService,
	sync SyncRunner,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchData: matchData,
		accuracy:  accuracy,
		sync:      sync,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

type upcomingMatchesQuery struct {
	Competition string `validate:"required,alpha,min=2,max=8"`
	Days        int    `validate:"gte=1,lte=14"`
}

func (h *Handler) ListUpcomingMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUpcomingMatches")
	defer span.End()

	query := upcomingMatchesQuery{
		Competition: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("competition"))),
		Days:        1,
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: days must be an integer", usecase.ErrInvalidInput))
			return
		}
		query.Days = days
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	matches, err := h.matchData.UpcomingMatches(ctx, query.Competition, query.Days)
	if err != nil {
		h.logger.WarnContext(ctx, "list upcoming matches failed",
			"competition", query.Competition, "days", query.Days, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID, err := strconv.ParseInt(r.PathValue("matchID"), 10, 64)
	if err != nil || matchID <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: match id must be a positive integer", usecase.ErrInvalidInput))
		return
	}

	m, err := h.matchData.MatchByID(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(m))
}

type teamMatchesQuery struct {
	Limit int `validate:"gte=1,lte=20"`
}

func (h *Handler) ListTeamMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamMatches")
	defer span.End()

	teamID, err := strconv.ParseInt(r.PathValue("teamID"), 10, 64)
	if err != nil || teamID <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: team id must be a positive integer", usecase.ErrInvalidInput))
		return
	}

	query := teamMatchesQuery{Limit: 5}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput))
			return
		}
		query.Limit = limit
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	matches, err := h.matchData.TeamLastMatches(ctx, teamID, query.Limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list team matches failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStandings")
	defer span.End()

	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))
	snapshot, err := h.matchData.Standings(ctx, code)
	if err != nil {
		h.logger.WarnContext(ctx, "get standings failed", "competition", code, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standingsToDTO(snapshot))
}

func (h *Handler) GetAccuracyStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAccuracyStats")
	defer span.End()

	stats, err := h.accuracy.Stats(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get accuracy stats failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, accuracyStatsToDTO(stats))
}

// RunSync kicks off a full sync cycle in the background. The run
// outlives the request, so it detaches from the request context.
func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSync")
	defer span.End()

	if h.sync == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	go h.sync.RunFullSync(context.WithoutCancel(ctx))

	writeSuccess(ctx, w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
