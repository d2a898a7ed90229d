package clasico

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type RewardType string

const (
	RewardGiftcardSmall   RewardType = "monetary_giftcard_small"
	RewardIndividualShot  RewardType = "individual_shot"
	RewardSymbolicSticker RewardType = "symbolic_sticker"
	RewardGroupToast      RewardType = "group_toast"
)

func RewardTypes() []RewardType {
	return []RewardType{RewardGiftcardSmall, RewardIndividualShot, RewardSymbolicSticker, RewardGroupToast}
}

func (t RewardType) Known() bool {
	return slices.Contains(RewardTypes(), t)
}

type RewardCategory string

const (
	CategoryDigital    RewardCategory = "digital"
	CategoryPhysical   RewardCategory = "physical"
	CategoryExperience RewardCategory = "experience"
)

type Reward struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    RewardCategory   `json:"category"`
	Value       *decimal.Decimal `json:"value,omitempty"`
	Currency    string           `json:"currency,omitempty"`
	ImageURL    string           `json:"imageUrl,omitempty"`
}

// IssuedReward is a reward handed to a user for one completion.
type IssuedReward struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	CompletionID string     `json:"challenge_completion_id"`
	Team         TeamID     `json:"team_id"`
	RewardType   RewardType `json:"reward_type"`
	Claimed      bool       `json:"claimed"`
	ClaimedAt    *time.Time `json:"claimed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Reward       Reward     `json:"reward"`
}

// Tags classify a template; campaigns filter on them.
type Tags struct {
	ChallengeType string `json:"challenge_type,omitempty" yaml:"challenge_type,omitempty"`
	ThemeTag      string `json:"theme_tag,omitempty" yaml:"theme_tag,omitempty"`
	EmotionalTier string `json:"emotional_tier,omitempty" yaml:"emotional_tier,omitempty"`
	SocialTrigger string `json:"social_trigger,omitempty" yaml:"social_trigger,omitempty"`
}

// Challenge is a static template. Team-level templates leave ArchetypeID and
// RouteID empty; archetype templates set both.
type Challenge struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	Team        TeamID     `json:"team,omitempty" yaml:"team,omitempty"`
	ArchetypeID string     `json:"archetype_id,omitempty" yaml:"archetype_id,omitempty"`
	RouteID     RouteID    `json:"route_id,omitempty" yaml:"route_id,omitempty"`
	Mode        Mode       `json:"mode" yaml:"mode"`
	Text        string     `json:"challenge_text" yaml:"text"`
	Difficulty  int        `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	RewardType  RewardType `json:"reward_type" yaml:"reward_type"`
	Tags        Tags       `json:"tags" yaml:"tags"`
}

func (c Challenge) TeamLevel() bool {
	return c.ArchetypeID == "" && c.RouteID == ""
}

// ChallengeFilter selects templates. Zero fields match anything, except that
// TeamLevel restricts the result to templates without an archetype.
type ChallengeFilter struct {
	Team        TeamID
	ArchetypeID string
	RouteID     RouteID
	Mode        Mode
	TeamLevel   bool
}

func (f ChallengeFilter) Match(c Challenge) bool {
	if f.TeamLevel && !c.TeamLevel() {
		return false
	}
	if f.Team != "" && c.Team != f.Team {
		return false
	}
	if f.ArchetypeID != "" && c.ArchetypeID != f.ArchetypeID {
		return false
	}
	if f.RouteID != "" && c.RouteID != f.RouteID {
		return false
	}
	if f.Mode != "" && c.Mode != f.Mode {
		return false
	}
	return true
}

// Campaign narrows the template set by classification tags. An empty allow
// list places no restriction on that tag.
type Campaign struct {
	ID                    string   `json:"campaign_id" yaml:"id"`
	Name                  string   `json:"name" yaml:"name"`
	AllowedChallengeTypes []string `json:"allowed_challenge_types" yaml:"allowed_challenge_types"`
	AllowedThemeTags      []string `json:"allowed_theme_tags" yaml:"allowed_theme_tags"`
	AllowedEmotionalTiers []string `json:"allowed_emotional_tiers" yaml:"allowed_emotional_tiers"`
	ABTestingEnabled      bool     `json:"ab_testing_enabled" yaml:"ab_testing_enabled"`
}

func (c Campaign) Allows(t Tags) bool {
	return allowed(c.AllowedChallengeTypes, t.ChallengeType) &&
		allowed(c.AllowedThemeTags, t.ThemeTag) &&
		allowed(c.AllowedEmotionalTiers, t.EmotionalTier)
}

func allowed(list []string, v string) bool {
	return len(list) == 0 || slices.Contains(list, v)
}

type Source string

const (
	SourceTemplate  Source = "template"
	SourceGenerated Source = "generated"
)

// RuntimeChallenge is one materialized challenge handed to a player.
type RuntimeChallenge struct {
	ID          string     `json:"id"`
	TemplateID  string     `json:"challenge_template_id"`
	Text        string     `json:"challenge_text"`
	Team        TeamID     `json:"team"`
	Mode        Mode       `json:"mode"`
	ArchetypeID string     `json:"archetype_id,omitempty"`
	RouteID     RouteID    `json:"route_id,omitempty"`
	Tags        Tags       `json:"tags"`
	RewardType  RewardType `json:"reward_type"`
	Reward      Reward     `json:"reward"`
	Source      Source     `json:"source"`
	ABGroup     string     `json:"ab_group,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
