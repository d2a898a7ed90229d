package server

import (
	"log/slog"
	"net/http"

	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/engine"
)

type GenerateChallengeRequest struct {
	Team clasico.TeamID `json:"team"`
	// Mode wins over Players; both empty means the session default.
	Mode        clasico.Mode    `json:"mode,omitempty"`
	Players     int             `json:"players,omitempty"`
	ArchetypeID string          `json:"archetype_id,omitempty"`
	RouteID     clasico.RouteID `json:"route_id,omitempty"`
	CampaignID  string          `json:"campaign_id,omitempty"`
	ABGroup     string          `json:"ab_group,omitempty"`
	Emotion     string          `json:"emotion,omitempty"`
	Location    string          `json:"location,omitempty"`
	Difficulty  int             `json:"difficulty,omitempty"`
	Generate    bool            `json:"generate,omitempty"`
}

func (req GenerateChallengeRequest) engineRequest(defaultCampaign string) engine.Request {
	ctx := clasico.NewContext(req.Team)
	if req.Emotion != "" {
		ctx.Campaign.Emotion = req.Emotion
	}
	if req.Location != "" {
		ctx.Campaign.Location = req.Location
	}
	if req.Difficulty > 0 {
		ctx.Campaign.Difficulty = req.Difficulty
	}
	mode := req.Mode
	if mode == "" && req.Players > 0 {
		mode = clasico.ModeForPlayers(req.Players)
	}
	campaign := req.CampaignID
	if campaign == "" {
		campaign = defaultCampaign
	}
	return engine.Request{
		Context:     ctx,
		Mode:        mode,
		ArchetypeID: req.ArchetypeID,
		RouteID:     req.RouteID,
		ABGroup:     req.ABGroup,
		CampaignID:  campaign,
		Generate:    req.Generate,
	}
}

func handleGenerateChallenge(logger *slog.Logger, app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateChallengeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		er := req.engineRequest(app.CampaignID)
		if er.ABGroup == "" && er.CampaignID != "" {
			if camp, ok := app.Catalog.Campaign(r.Context(), er.CampaignID); ok && camp.ABTestingEnabled {
				er.ABGroup = engine.AssignABGroup(app.Rand)
			}
		}

		rc, err := app.Engine.Generate(r.Context(), er)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if rc == nil {
			logger.InfoContext(r.Context(), "no challenge available",
				"team", req.Team, "mode", er.Mode, "archetype_id", req.ArchetypeID, "route_id", req.RouteID)
			writeError(w, http.StatusNotFound, "no challenge available")
			return
		}
		writeJSON(w, http.StatusOK, rc)
	}
}
