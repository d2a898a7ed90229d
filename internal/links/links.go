// Package links builds and reads the shareable links that open the game with a
// preselected team and campaign settings.
package links

import (
	"fmt"
	"net/url"

	"github.com/brinda/clasico/internal/clasico"
)

const DefaultBaseURL = "https://brinda.io/play"

type Params struct {
	Capsule  string `json:"capsule,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Emotion  string `json:"emotion,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Location string `json:"location,omitempty"`
}

func (p Params) validate() error {
	if p.Brand != "" {
		if _, err := clasico.ParseTeam(p.Brand); err != nil {
			return err
		}
	}
	if p.Mode != "" {
		if _, err := clasico.ParseMode(p.Mode); err != nil {
			return err
		}
	}
	return nil
}

// Build returns base with the non-empty params as query values.
func Build(base string, p Params) (string, error) {
	if base == "" {
		base = DefaultBaseURL
	}
	if err := p.validate(); err != nil {
		return "", err
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	q := u.Query()
	for k, v := range map[string]string{
		"capsule":  p.Capsule,
		"brand":    p.Brand,
		"emotion":  p.Emotion,
		"mode":     p.Mode,
		"location": p.Location,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Parse reads the params back out of a link.
func Parse(link string) (Params, error) {
	u, err := url.Parse(link)
	if err != nil {
		return Params{}, fmt.Errorf("parsing link: %w", err)
	}
	q := u.Query()
	p := Params{
		Capsule:  q.Get("capsule"),
		Brand:    q.Get("brand"),
		Emotion:  q.Get("emotion"),
		Mode:     q.Get("mode"),
		Location: q.Get("location"),
	}
	return p, p.validate()
}

// Context turns the params into a session context, keeping the defaults for
// anything the link leaves out. Brand must be set.
func (p Params) Context() (clasico.Context, error) {
	team, err := clasico.ParseTeam(p.Brand)
	if err != nil {
		return clasico.Context{}, err
	}
	ctx := clasico.NewContext(team)
	if p.Emotion != "" {
		ctx.Campaign.Emotion = p.Emotion
	}
	if p.Location != "" {
		ctx.Campaign.Location = p.Location
	}
	if p.Mode != "" {
		m, err := clasico.ParseMode(p.Mode)
		if err != nil {
			return clasico.Context{}, err
		}
		ctx.Campaign.Mode = m
	}
	return ctx, nil
}
