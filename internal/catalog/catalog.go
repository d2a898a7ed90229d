// Package catalog reads game data from the record store and answers from the
// built-in fallback data whenever the store is absent, empty or failing.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/fallback"
	"github.com/brinda/clasico/internal/records"
)

var ErrReadOnly = errors.New("no record store configured")

type Catalog struct {
	store  records.Store
	fb     *fallback.Store
	logger *slog.Logger
}

// New returns a catalog over store. A nil store serves the fallback data only.
func New(store records.Store, fb *fallback.Store, logger *slog.Logger) *Catalog {
	return &Catalog{store: store, fb: fb, logger: logger}
}

// selectAs reads table and decodes it. ok is false when the caller should use
// fallback data instead.
func selectAs[T any](ctx context.Context, c *Catalog, table string, f records.Filter) (_ []T, ok bool) {
	if c.store == nil {
		return nil, false
	}
	recs, err := c.store.Select(ctx, table, f)
	if err == nil {
		var out []T
		out, err = records.Decode[T](recs)
		if err == nil {
			return out, len(out) > 0
		}
	}
	level := slog.LevelError
	if records.Recoverable(err) {
		level = slog.LevelWarn
	}
	c.logger.Log(ctx, level, "record store read failed, using fallback data",
		"table", table, "error", err)
	return nil, false
}

func (c *Catalog) Archetypes(ctx context.Context, team clasico.TeamID) []clasico.Archetype {
	f := records.Filter{}
	if team != "" {
		f["team"] = string(team)
	}
	if as, ok := selectAs[clasico.Archetype](ctx, c, records.Archetypes, f); ok {
		if as = c.validArchetypes(ctx, as); len(as) > 0 {
			return as
		}
	}
	return c.fb.ListArchetypes(team)
}

func (c *Catalog) Archetype(ctx context.Context, id string) (clasico.Archetype, error) {
	if as, ok := selectAs[clasico.Archetype](ctx, c, records.Archetypes, records.Filter{"id": id}); ok {
		if as = c.validArchetypes(ctx, as); len(as) > 0 {
			return as[0], nil
		}
	}
	if a, ok := c.fb.GetArchetype(id); ok {
		return a, nil
	}
	return clasico.Archetype{}, fmt.Errorf("%w: %q", clasico.ErrUnknownArchetype, id)
}

// validArchetypes drops stored archetypes that break the archetype invariants.
func (c *Catalog) validArchetypes(ctx context.Context, as []clasico.Archetype) []clasico.Archetype {
	out := as[:0]
	for _, a := range as {
		if err := a.Validate(); err != nil {
			c.logger.WarnContext(ctx, "skipping invalid stored archetype", "id", a.ID, "error", err)
			continue
		}
		out = append(out, a)
	}
	return out
}

func (c *Catalog) Challenges(ctx context.Context, f clasico.ChallengeFilter) []clasico.Challenge {
	rf := records.Filter{}
	if f.Team != "" {
		rf["team"] = string(f.Team)
	}
	if f.ArchetypeID != "" {
		rf["archetype_id"] = f.ArchetypeID
	}
	if f.RouteID != "" {
		rf["route_id"] = string(f.RouteID)
	}
	if f.Mode != "" {
		rf["mode"] = string(f.Mode)
	}
	if cs, ok := selectAs[clasico.Challenge](ctx, c, records.Challenges, rf); ok {
		var out []clasico.Challenge
		for _, ch := range cs {
			if f.Match(ch) {
				out = append(out, ch)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return c.fb.ListChallenges(f)
}

func (c *Catalog) Routes(ctx context.Context) []clasico.Route {
	if rs, ok := selectAs[clasico.Route](ctx, c, records.Routes, nil); ok {
		return rs
	}
	return c.fb.ListRoutes()
}

func (c *Catalog) Route(ctx context.Context, id clasico.RouteID) (clasico.Route, error) {
	if rs, ok := selectAs[clasico.Route](ctx, c, records.Routes, records.Filter{"id": string(id)}); ok {
		return rs[0], nil
	}
	if r, ok := c.fb.GetRoute(id); ok {
		return r, nil
	}
	return clasico.Route{}, fmt.Errorf("%w: %q", clasico.ErrUnknownRoute, id)
}

func (c *Catalog) Campaign(ctx context.Context, id string) (clasico.Campaign, bool) {
	if cs, ok := selectAs[clasico.Campaign](ctx, c, records.Campaigns, records.Filter{"campaign_id": id}); ok {
		return cs[0], true
	}
	return c.fb.GetCampaign(id)
}

func (c *Catalog) GenericChallenge(archetypeID string) string {
	return c.fb.GenericChallenge(archetypeID)
}

type unlock struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ArchetypeID string    `json:"archetype_id"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

// UnlockArchetype records that userID unlocked archetypeID. Without a store
// the unlock is simulated and nil is returned.
func (c *Catalog) UnlockArchetype(ctx context.Context, userID, archetypeID string) error {
	if c.store == nil {
		return nil
	}
	r, err := records.From(unlock{
		ID:          userID + ":" + archetypeID,
		UserID:      userID,
		ArchetypeID: archetypeID,
		UnlockedAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if _, err := c.store.Insert(ctx, records.UserArchetypes, r); err != nil {
		return fmt.Errorf("unlocking archetype %s: %w", archetypeID, err)
	}
	return nil
}

// UserArchetypes returns the ids of the archetypes userID has unlocked.
func (c *Catalog) UserArchetypes(ctx context.Context, userID string) []string {
	us, ok := selectAs[unlock](ctx, c, records.UserArchetypes, records.Filter{"user_id": userID})
	if !ok {
		return []string{}
	}
	ids := make([]string, 0, len(us))
	for _, u := range us {
		ids = append(ids, u.ArchetypeID)
	}
	return ids
}

// PutChallenge stores or replaces a challenge template in the record store.
func (c *Catalog) PutChallenge(ctx context.Context, ch clasico.Challenge) error {
	if c.store == nil {
		return ErrReadOnly
	}
	if err := validateChallenge(ch); err != nil {
		return err
	}
	r, err := records.From(ch)
	if err != nil {
		return err
	}
	_, err = c.store.Insert(ctx, records.Challenges, r)
	return err
}

func validateChallenge(ch clasico.Challenge) error {
	if ch.ID == "" || ch.Text == "" {
		return fmt.Errorf("%w: challenge needs id and text", clasico.ErrInvalidRequest)
	}
	if _, err := clasico.ParseMode(string(ch.Mode)); err != nil {
		return err
	}
	if !ch.RewardType.Known() {
		return fmt.Errorf("%w: reward type %q", clasico.ErrInvalidRequest, ch.RewardType)
	}
	if (ch.ArchetypeID == "") != (ch.RouteID == "") {
		return fmt.Errorf("%w: archetype and route go together", clasico.ErrInvalidRequest)
	}
	if ch.RouteID != "" {
		if _, err := clasico.ParseRoute(string(ch.RouteID)); err != nil {
			return err
		}
	}
	if ch.TeamLevel() {
		if _, err := clasico.ParseTeam(string(ch.Team)); err != nil {
			return err
		}
	}
	return nil
}

// Seed copies the fallback data set into the record store and returns the
// number of records written.
func (c *Catalog) Seed(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, ErrReadOnly
	}
	var n int
	put := func(table string, v any) error {
		r, err := records.From(v)
		if err != nil {
			return err
		}
		if _, err := c.store.Insert(ctx, table, r); err != nil {
			return fmt.Errorf("seeding %s: %w", table, err)
		}
		n++
		return nil
	}
	for _, a := range c.fb.ListArchetypes("") {
		if err := put(records.Archetypes, a); err != nil {
			return n, err
		}
	}
	for _, r := range c.fb.ListRoutes() {
		if err := put(records.Routes, r); err != nil {
			return n, err
		}
	}
	for _, ch := range c.fb.ListChallenges(clasico.ChallengeFilter{}) {
		if err := put(records.Challenges, ch); err != nil {
			return n, err
		}
	}
	for _, cp := range c.fb.ListCampaigns() {
		r, err := records.From(cp)
		if err != nil {
			return n, err
		}
		r["id"] = cp.ID
		if _, err := c.store.Insert(ctx, records.Campaigns, r); err != nil {
			return n, fmt.Errorf("seeding %s: %w", records.Campaigns, err)
		}
		n++
	}
	return n, nil
}
