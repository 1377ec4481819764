package entitlement

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultGrantDuration is the validity of one-time purchases (PIX, single card charge).
const defaultGrantDuration = 30 * 24 * time.Hour

// Catalog is the immutable plan lookup table.
type Catalog struct {
	plans map[PlanID]Plan
}

// NewCatalog validates the plans and builds a catalog from them.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	c := &Catalog{plans: make(map[PlanID]Plan, len(plans))}
	for _, p := range plans {
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate plan %q", ErrInvalidPlanConfiguration, p.ID)
		}
		if p.TeamSeatLimit != nil {
			seats := *p.TeamSeatLimit
			p.TeamSeatLimit = &seats
		}
		c.plans[p.ID] = p
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewCatalog is like NewCatalog but panics on invalid input.
func MustNewCatalog(plans ...Plan) *Catalog {
	c, err := NewCatalog(plans...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the built-in tiers.
func DefaultCatalog() *Catalog {
	seats := 10
	return MustNewCatalog(
		Plan{
			ID:              PlanFree,
			Name:            "Gratuito",
			GenerationQuota: 2,
		},
		Plan{
			ID:              PlanPersonal,
			Name:            "Pessoal",
			GenerationQuota: Unlimited,
			Price:           Money{Amount: 1990, Currency: "BRL"},
			GrantDuration:   defaultGrantDuration,
		},
		Plan{
			ID:              PlanSchool,
			Name:            "Escola",
			GenerationQuota: 1000,
			TeamSeatLimit:   &seats,
			Price:           Money{Amount: 9990, Currency: "BRL"},
			GrantDuration:   defaultGrantDuration,
		},
	)
}

type catalogFile struct {
	Plans []Plan `yaml:"plans"`
}

// LoadCatalog reads a YAML catalog:
//
//	plans:
//	  - id: Free
//	    generation_quota: 2
//	  - id: School
//	    generation_quota: 1000
//	    team_seat_limit: 10
//	    grant_duration: 720h
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var f catalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Join(ErrInvalidPlanConfiguration, err)
	}
	return NewCatalog(f.Plans...)
}

// Lookup returns the plan definition for id.
func (c *Catalog) Lookup(id PlanID) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// Free returns the fallback tier every account reverts to.
func (c *Catalog) Free() Plan {
	return c.plans[PlanFree]
}

// Plans returns all plans ordered by id.
func (c *Catalog) Plans() []Plan {
	ids := slices.Sorted(maps.Keys(c.plans))
	out := make([]Plan, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.plans[id])
	}
	return out
}

func (c *Catalog) validate() error {
	if _, ok := c.plans[PlanFree]; !ok {
		return fmt.Errorf("%w: %s plan is required", ErrInvalidPlanConfiguration, PlanFree)
	}
	for id, p := range c.plans {
		switch id {
		case PlanFree, PlanPersonal, PlanSchool:
		default:
			return fmt.Errorf("%w: unknown plan %q", ErrInvalidPlanConfiguration, id)
		}
		if p.GenerationQuota < Unlimited {
			return fmt.Errorf("%w: plan %s has negative quota %d", ErrInvalidPlanConfiguration, id, p.GenerationQuota)
		}
		if p.HasSeats() != (id == PlanSchool) {
			return fmt.Errorf("%w: team seat limit is only valid on the %s plan", ErrInvalidPlanConfiguration, PlanSchool)
		}
		if p.HasSeats() && p.SeatLimit() < 0 {
			return fmt.Errorf("%w: plan %s has negative seat limit", ErrInvalidPlanConfiguration, id)
		}
		if id != PlanFree && p.GrantDuration <= 0 {
			return fmt.Errorf("%w: paid plan %s requires a grant duration", ErrInvalidPlanConfiguration, id)
		}
	}
	return nil
}
