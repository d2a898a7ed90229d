package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/gameplay"
	"github.com/brinda/clasico/internal/handler/chat"
	"github.com/brinda/clasico/internal/handler/health"
	"github.com/brinda/clasico/internal/links"
	"github.com/brinda/clasico/internal/mechanics"
	"github.com/brinda/clasico/internal/templates"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type idPath struct {
	ID string `path:"id"`
}

type teamPath struct {
	Team string `path:"team"`
}

type userPath struct {
	UserID string `path:"userID"`
}

type teamQuery struct {
	Team string `query:"team"`
}

type challengeQuery struct {
	Team      string `query:"team"`
	Mode      string `query:"mode"`
	Archetype string `query:"archetype"`
	Route     string `query:"route"`
}

type roomQuery struct {
	Room string `query:"room"`
}

type wsQuery struct {
	UserID string `query:"user_id" required:"true"`
	Room   string `query:"room"`
	Name   string `query:"name"`
	Team   string `query:"team"`
}

type linkQuery struct {
	URL string `query:"url" required:"true"`
}

type operation struct {
	method, path, summary, description string

	// params describes path and query parameters.
	params any
	req    any
	resp   any
	// status of resp; 200 when zero.
	status int
	errors []int
	// contentType overrides the JSON response of streaming endpoints.
	contentType string
}

var operations = []operation{
	{
		method: http.MethodGet, path: "/healthz",
		summary:     "Health check",
		description: "Returns the health status of the record store and event bus.",
		resp:        health.Response{},
		errors:      []int{http.StatusServiceUnavailable},
	},
	{
		method: http.MethodGet, path: "/api/teams",
		summary:     "List teams",
		description: "Returns both playable teams with their styling.",
		resp:        []clasico.Team{},
	},
	{
		method: http.MethodGet, path: "/api/teams/{team}/rewards",
		params:      teamPath{},
		summary:     "Team rewards",
		description: "Returns the digital, physical and experience rewards a team advertises for today's match.",
		resp:        templates.RewardTriple{},
		errors:      []int{http.StatusNotFound},
	},
	{
		method: http.MethodGet, path: "/api/archetypes",
		params:      teamQuery{},
		summary:     "List archetypes",
		description: "Returns the fan archetypes, optionally for one team (query parameter team).",
		resp:        []clasico.Archetype{},
	},
	{
		method: http.MethodGet, path: "/api/archetypes/{id}",
		params:  idPath{},
		summary: "Get archetype",
		resp:    clasico.Archetype{},
		errors:  []int{http.StatusNotFound},
	},
	{
		method: http.MethodGet, path: "/api/routes",
		summary:     "List routes",
		description: "Returns the challenge routes and their mechanics.",
		resp:        []clasico.Route{},
	},
	{
		method: http.MethodGet, path: "/api/routes/{id}",
		params:  idPath{},
		summary: "Get route",
		resp:    clasico.Route{},
		errors:  []int{http.StatusNotFound},
	},
	{
		method: http.MethodPost, path: "/api/routes/{id}/spin",
		params:      idPath{},
		summary:     "Spin the wheel",
		description: "Picks one option of a random_wheel route.",
		resp:        mechanics.Spin{},
		errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method: http.MethodPost, path: "/api/routes/{id}/quiz",
		params:      idPath{},
		summary:     "Score a quiz",
		description: "Grades the answers to a quiz route, in question order.",
		req:         QuizRequest{},
		resp:        QuizResponse{},
		errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method: http.MethodGet, path: "/api/challenges",
		params:      challengeQuery{},
		summary:     "List challenge templates",
		description: "Filters by team, mode, archetype and route query parameters. Without archetype and route only team-level templates are listed.",
		resp:        []clasico.Challenge{},
		errors:      []int{http.StatusBadRequest},
	},
	{
		method: http.MethodPost, path: "/api/challenges/generate",
		summary:     "Generate a challenge",
		description: "Picks a template for the team, mode, archetype and route, resolves its placeholders and optionally replaces the text with a generated one.",
		req:         GenerateChallengeRequest{},
		resp:        clasico.RuntimeChallenge{},
		errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method: http.MethodPost, path: "/api/completions",
		summary:     "Complete a challenge",
		description: "Records a completion, unlocks archetypes and issues the reward.",
		req:         gameplay.CompleteRequest{},
		resp:        gameplay.CompletionResult{},
		status:      http.StatusCreated,
		errors:      []int{http.StatusBadRequest},
	},
	{
		method: http.MethodGet, path: "/api/events",
		summary:     "SSE event stream",
		description: "Server-Sent Events stream of challenge completions.",
		contentType: "text/event-stream",
		errors:      []int{http.StatusServiceUnavailable},
	},
	{
		method: http.MethodGet, path: "/api/users/{userID}/completions",
		params:  userPath{},
		summary: "User completions",
		resp:    []clasico.Completion{},
	},
	{
		method: http.MethodGet, path: "/api/users/{userID}/rewards",
		params:  userPath{},
		summary: "User rewards",
		resp:    []clasico.IssuedReward{},
	},
	{
		method: http.MethodGet, path: "/api/users/{userID}/archetypes",
		params:  userPath{},
		summary: "Unlocked archetypes",
		resp:    UserArchetypesResponse{},
	},
	{
		method: http.MethodPost, path: "/api/rewards/{id}/claim",
		params:  idPath{},
		summary: "Claim a reward",
		resp:    clasico.IssuedReward{},
		errors:  []int{http.StatusNotFound},
	},
	{
		method: http.MethodPost, path: "/api/links",
		summary:     "Build a smart link",
		description: "Returns a shareable link that opens the game with a preselected team and campaign settings.",
		req:         links.Params{},
		resp:        LinkResponse{},
		status:      http.StatusCreated,
		errors:      []int{http.StatusBadRequest},
	},
	{
		method: http.MethodGet, path: "/api/links/context",
		params:      linkQuery{},
		summary:     "Read a smart link",
		description: "Returns the session context a link preselects (query parameter url).",
		resp:        clasico.Context{},
		errors:      []int{http.StatusBadRequest},
	},
	{
		method: http.MethodPut, path: "/api/admin/challenges/{id}",
		params:      idPath{},
		summary:     "Store a challenge template",
		description: "Creates or replaces a template in the record store. Requires the X-Admin-Key header.",
		req:         clasico.Challenge{},
		resp:        clasico.Challenge{},
		errors:      []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/admin/seed",
		summary:     "Seed the record store",
		description: "Copies the built-in data set into the record store. Requires the X-Admin-Key header.",
		resp:        SeedResponse{},
		errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusConflict},
	},
	{
		method: http.MethodGet, path: "/chat/messages",
		params:      roomQuery{},
		summary:     "Chat history",
		description: "Returns the latest messages of a room (query parameter room).",
		resp:        []chat.Message{},
	},
	{
		method: http.MethodPost, path: "/chat/messages",
		summary: "Post a chat message",
		req:     chat.PostRequest{},
		resp:    chat.Message{},
		status:  http.StatusCreated,
		errors:  []int{http.StatusBadRequest},
	},
	{
		method: http.MethodGet, path: "/chat/presence",
		params:  roomQuery{},
		summary: "Who is online",
		resp:    chat.PresenceResponse{},
	},
	{
		method: http.MethodGet, path: "/chat/ws",
		params:      wsQuery{},
		summary:     "Chat websocket",
		description: "Upgrades to a WebSocket carrying chat messages and presence events. Requires user_id.",
		status:      http.StatusSwitchingProtocols,
		contentType: "text/plain",
		errors:      []int{http.StatusBadRequest},
	},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Clásico Regio API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Tigres vs Rayados challenge game.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		if op.params != nil {
			oc.AddReqStructure(op.params)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		status := op.status
		if status == 0 {
			status = http.StatusOK
		}
		if op.contentType != "" {
			oc.AddRespStructure(nil, openapi.WithHTTPStatus(status), openapi.WithContentType(op.contentType))
		} else {
			oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(status))
		}
		for _, code := range op.errors {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(code))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
