// Package gameplay runs the completion flow: record the completion, unlock
// archetypes, issue the reward and announce it on the bus.
package gameplay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brinda/clasico/internal/bus"
	"github.com/brinda/clasico/internal/catalog"
	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/mechanics"
	"github.com/brinda/clasico/internal/records"
	"github.com/brinda/clasico/internal/reward"
)

const EventCompleted = "challenge_completed"

type CompleteRequest struct {
	UserID    string                   `json:"user_id"`
	Challenge clasico.RuntimeChallenge `json:"challenge"`
	MediaType string                   `json:"media_type,omitempty"`
	MediaURL  string                   `json:"media_url,omitempty"`
	// Response is the player's text answer on voice_or_text routes.
	Response string `json:"response,omitempty"`
}

type CompletionResult struct {
	Completion clasico.Completion   `json:"completion"`
	Reward     clasico.IssuedReward `json:"reward"`
	Unlocked   []clasico.Archetype  `json:"unlocked"`
	// Simulated is set when the completion could not be stored.
	Simulated bool `json:"simulated"`
}

type Service struct {
	catalog *catalog.Catalog
	store   records.Store
	rewards *reward.Mapper
	bus     bus.Bus
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires the completion flow. store and b may be nil.
func NewService(cat *catalog.Catalog, store records.Store, rewards *reward.Mapper, b bus.Bus, logger *slog.Logger) *Service {
	return &Service{
		catalog: cat,
		store:   store,
		rewards: rewards,
		bus:     b,
		logger:  logger,
		now:     time.Now,
	}
}

// Complete records a finished challenge. Only invalid input is an error;
// store, unlock and bus failures are logged and the flow carries on.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) (CompletionResult, error) {
	rc := req.Challenge
	team, err := clasico.ParseTeam(string(rc.Team))
	if err != nil {
		return CompletionResult{}, err
	}
	mode, err := clasico.ParseMode(string(rc.Mode))
	if err != nil {
		return CompletionResult{}, err
	}
	media, err := clasico.ParseMediaType(req.MediaType)
	if err != nil {
		return CompletionResult{}, err
	}
	if rc.RouteID != "" {
		if _, err := clasico.ParseRoute(string(rc.RouteID)); err != nil {
			return CompletionResult{}, err
		}
	}
	if rc.Text == "" {
		return CompletionResult{}, fmt.Errorf("%w: challenge text is required", clasico.ErrInvalidRequest)
	}
	if req.Response != "" && rc.RouteID != "" {
		route, err := s.catalog.Route(ctx, rc.RouteID)
		if err != nil {
			return CompletionResult{}, err
		}
		if err := mechanics.ValidateResponse(route, req.Response); err != nil {
			return CompletionResult{}, err
		}
	}

	userID := req.UserID
	if userID == "" {
		userID = reward.DemoUserID()
	}
	res := CompletionResult{
		Completion: clasico.Completion{
			ID:          uuid.NewString(),
			UserID:      userID,
			ChallengeID: rc.ID,
			Challenge:   rc.Text,
			ArchetypeID: rc.ArchetypeID,
			RouteID:     rc.RouteID,
			Mode:        mode,
			Team:        team,
			MediaType:   media,
			MediaURL:    req.MediaURL,
			CreatedAt:   s.now().UTC(),
		},
		Unlocked: []clasico.Archetype{},
	}
	res.Simulated = !s.persist(ctx, res.Completion)
	res.Unlocked = s.unlock(ctx, userID, rc.RouteID)
	res.Reward = s.rewards.Issue(ctx, userID, rc, res.Completion.ID, team)

	if s.bus != nil {
		ev := bus.NewEvent(EventCompleted, map[string]any{
			"completion": res.Completion,
			"reward":     res.Reward.Reward,
			"unlocked":   len(res.Unlocked),
		})
		if err := s.bus.Publish(ctx, bus.Completions, ev); err != nil {
			s.logger.WarnContext(ctx, "publishing completion failed", "completion_id", res.Completion.ID, "error", err)
		}
	}
	return res, nil
}

// persist stores c and reports whether that worked.
func (s *Service) persist(ctx context.Context, c clasico.Completion) bool {
	if s.store == nil {
		return false
	}
	rec, err := records.From(c)
	if err == nil {
		_, err = s.store.Insert(ctx, records.Completions, rec)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "storing completion failed, simulating",
			"completion_id", c.ID, "recoverable", records.Recoverable(err), "error", err)
		return false
	}
	return true
}

// unlock unlocks every archetype whose condition names route.
func (s *Service) unlock(ctx context.Context, userID string, route clasico.RouteID) []clasico.Archetype {
	out := []clasico.Archetype{}
	if route == "" {
		return out
	}
	for _, a := range s.catalog.Archetypes(ctx, "") {
		r, ok := a.UnlockRoute()
		if !ok || r != route {
			continue
		}
		if err := s.catalog.UnlockArchetype(ctx, userID, a.ID); err != nil {
			s.logger.WarnContext(ctx, "unlocking archetype failed", "archetype_id", a.ID, "error", err)
			continue
		}
		a.IsUnlocked = true
		out = append(out, a)
	}
	return out
}

// History lists userID's completions, oldest first. Store failures yield an
// empty list.
func (s *Service) History(ctx context.Context, userID string) []clasico.Completion {
	if s.store == nil {
		return []clasico.Completion{}
	}
	recs, err := s.store.Select(ctx, records.Completions, records.Filter{"user_id": userID})
	if err == nil {
		var out []clasico.Completion
		if out, err = records.Decode[clasico.Completion](recs); err == nil {
			return out
		}
	}
	s.logger.WarnContext(ctx, "listing completions failed", "user_id", userID, "error", err)
	return []clasico.Completion{}
}
