// Package reward maps completed challenges to reward descriptors and keeps the
// rewards issued to each user.
package reward

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/records"
)

const ImageURL = "/placeholder.svg?height=200&width=200"

// Describe maps a reward-type tag to its descriptor. The team only changes
// names; unknown tags yield the mystery reward.
func Describe(tag clasico.RewardType, team clasico.TeamID) clasico.Reward {
	t, known := clasico.LookupTeam(team)
	switch tag {
	case clasico.RewardGiftcardSmall:
		return clasico.Reward{
			Name:        "Tarjeta de Regalo",
			Description: "Una tarjeta de regalo de $50 MXN",
			Category:    clasico.CategoryDigital,
			Value:       clasico.Money(50),
			Currency:    "MXN",
			ImageURL:    ImageURL,
		}
	case clasico.RewardIndividualShot:
		name := "Shot del Clásico"
		if known {
			name = t.ShotName
		}
		return clasico.Reward{
			Name:        name,
			Description: "Un shot especial de " + name,
			Category:    clasico.CategoryPhysical,
			ImageURL:    ImageURL,
		}
	case clasico.RewardSymbolicSticker:
		name := "Sticker del Clásico"
		if known {
			name = t.StickerName
		}
		return clasico.Reward{
			Name:        name,
			Description: "Un sticker digital exclusivo",
			Category:    clasico.CategoryDigital,
			ImageURL:    ImageURL,
		}
	case clasico.RewardGroupToast:
		return clasico.Reward{
			Name:        "Brindis Grupal",
			Description: "Un brindis especial con todo el grupo",
			Category:    clasico.CategoryExperience,
			ImageURL:    ImageURL,
		}
	}
	return Mystery()
}

func Mystery() clasico.Reward {
	return clasico.Reward{
		Name:        "Recompensa Misteriosa",
		Description: "Una recompensa especial",
		Category:    clasico.CategoryDigital,
		ImageURL:    ImageURL,
	}
}

// Backup is handed out when issuing fails unexpectedly.
func Backup() clasico.Reward {
	return clasico.Reward{
		Name:        "Recompensa de Respaldo",
		Description: "Una recompensa de respaldo",
		Category:    clasico.CategoryDigital,
		ImageURL:    ImageURL,
	}
}

// DemoUserID returns the id given to anonymous players.
func DemoUserID() string {
	return "demo_user_" + uuid.NewString()[:8]
}

type Mapper struct {
	store  records.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewMapper returns a mapper persisting to store. A nil store simulates
// persistence.
func NewMapper(store records.Store, logger *slog.Logger) *Mapper {
	return &Mapper{store: store, logger: logger, now: time.Now}
}

// Issue maps rc to a reward for userID and records it. It never fails: store
// errors are logged and the mapped reward is still returned, and any other
// failure yields the backup reward.
func (m *Mapper) Issue(ctx context.Context, userID string, rc clasico.RuntimeChallenge, completionID string, team clasico.TeamID) (out clasico.IssuedReward) {
	if userID == "" {
		userID = DemoUserID()
	}
	out = clasico.IssuedReward{
		ID:           uuid.NewString(),
		UserID:       userID,
		CompletionID: completionID,
		Team:         team,
		RewardType:   rc.RewardType,
		CreatedAt:    m.now().UTC(),
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "issuing reward panicked", "user_id", userID, "panic", r)
			out.Reward = Backup()
		}
	}()

	out.Reward = Describe(rc.RewardType, team)
	if m.store == nil {
		return out
	}

	rec, err := records.From(out)
	if err == nil {
		_, err = m.store.Insert(ctx, records.UserRewards, rec)
	}
	if err != nil {
		if !records.Recoverable(err) {
			m.logger.ErrorContext(ctx, "storing reward failed", "user_id", userID, "error", err)
			out.Reward = Backup()
			return out
		}
		m.logger.WarnContext(ctx, "storing reward failed, simulating", "user_id", userID, "error", err)
	}
	return out
}

// Claim marks an issued reward as claimed. Without a store the claim is
// simulated.
func (m *Mapper) Claim(ctx context.Context, rewardID string) (clasico.IssuedReward, error) {
	now := m.now().UTC()
	if m.store == nil {
		return clasico.IssuedReward{ID: rewardID, Claimed: true, ClaimedAt: &now}, nil
	}
	rec, err := m.store.Update(ctx, records.UserRewards, rewardID, records.Record{
		"claimed":    true,
		"claimed_at": now.Format(time.RFC3339Nano),
	})
	if err != nil {
		return clasico.IssuedReward{}, fmt.Errorf("claiming reward %s: %w", rewardID, err)
	}
	return records.DecodeOne[clasico.IssuedReward](rec)
}

// UserRewards lists the rewards issued to userID. Store failures yield an
// empty list.
func (m *Mapper) UserRewards(ctx context.Context, userID string) []clasico.IssuedReward {
	if m.store == nil {
		return []clasico.IssuedReward{}
	}
	recs, err := m.store.Select(ctx, records.UserRewards, records.Filter{"user_id": userID})
	if err == nil {
		var out []clasico.IssuedReward
		if out, err = records.Decode[clasico.IssuedReward](recs); err == nil {
			return out
		}
	}
	m.logger.WarnContext(ctx, "listing rewards failed", "user_id", userID, "error", err)
	return []clasico.IssuedReward{}
}
