package server

import (
	"time"

	"github.com/brinda/clasico/internal/bus"
	"github.com/brinda/clasico/internal/catalog"
	"github.com/brinda/clasico/internal/engine"
	"github.com/brinda/clasico/internal/gameplay"
	"github.com/brinda/clasico/internal/links"
	"github.com/brinda/clasico/internal/mechanics"
	"github.com/brinda/clasico/internal/reward"
)

// App carries the services the HTTP handlers call into.
type App struct {
	Catalog  *catalog.Catalog
	Engine   *engine.Engine
	Gameplay *gameplay.Service
	Rewards  *reward.Mapper
	Bus      bus.Bus

	// CampaignID applies when a generate request names no campaign.
	CampaignID   string
	LinkBaseURL  string
	AdminKeyHash string
	CORSOrigins  []string
	// WebDir holds the built web client; empty serves the API only.
	WebDir string

	Rand mechanics.Rand
	Now  func() time.Time
}

func (a App) withDefaults() App {
	if a.LinkBaseURL == "" {
		a.LinkBaseURL = links.DefaultBaseURL
	}
	if a.Now == nil {
		a.Now = time.Now
	}
	return a
}

func (a App) corsOrigins() []string {
	if len(a.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return a.CORSOrigins
}
