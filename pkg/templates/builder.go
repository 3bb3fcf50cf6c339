// Package templates assembles the nested template resource: a template, its
// days, each day's meals and each meal's items.
//
// Two strategies produce the same tree. The staged strategy issues one query
// for the template, one for its days, one per day for meals and one per meal
// for items, using identifiers from each pass only as filter keys for the
// next. The joined strategy reads days, meals and items in a single ordered
// query and rebuilds the tree by detecting key changes between rows.
package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nutrition-hq/dietapi/pkg/dataengine"
)

const (
	DefaultMaxDays        = 100
	DefaultMaxMealsPerDay = 50
)

// ErrTemplateNotFound is returned when no template has the requested id.
var ErrTemplateNotFound = errors.New("template not found")

// Strategy selects how the tree is read.
type Strategy string

const (
	StrategyStaged Strategy = "staged"
	StrategyJoined Strategy = "joined"
)

// ParseStrategy accepts "staged", "joined" or "" (staged).
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyStaged:
		return StrategyStaged, nil
	case StrategyJoined:
		return StrategyJoined, nil
	default:
		return "", fmt.Errorf("unknown aggregate strategy %q (want staged or joined)", s)
	}
}

// Config bounds and configures a Builder.
type Config struct {
	Strategy Strategy

	// MaxDays caps the days of one template. Zero uses DefaultMaxDays.
	MaxDays int

	// MaxMealsPerDay caps the meals of one day. Zero uses
	// DefaultMaxMealsPerDay.
	MaxMealsPerDay int

	Logger *slog.Logger
}

// Builder builds template trees from an engine.
type Builder struct {
	engine         dataengine.Engine
	strategy       Strategy
	maxDays        int
	maxMealsPerDay int
	logger         *slog.Logger
}

// NewBuilder creates a Builder. An unknown strategy falls back to staged.
func NewBuilder(engine dataengine.Engine, cfg Config) *Builder {
	strategy, err := ParseStrategy(string(cfg.Strategy))
	if err != nil {
		strategy = StrategyStaged
	}
	maxDays := cfg.MaxDays
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}
	maxMeals := cfg.MaxMealsPerDay
	if maxMeals <= 0 {
		maxMeals = DefaultMaxMealsPerDay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		engine:         engine,
		strategy:       strategy,
		maxDays:        maxDays,
		maxMealsPerDay: maxMeals,
		logger:         logger.With("component", "templates"),
	}
}

// Strategy returns the strategy in use.
func (b *Builder) Strategy() Strategy {
	return b.strategy
}

// Build returns the full tree of one template. A failure reading the template
// or its days is returned; a failure reading the meals of one day or the
// items of one meal leaves that branch empty.
func (b *Builder) Build(ctx context.Context, templateID int) (*Template, error) {
	tpl, err := b.loadTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	switch b.strategy {
	case StrategyJoined:
		err = b.buildJoined(ctx, tpl)
	default:
		err = b.buildStaged(ctx, tpl)
	}
	if err != nil {
		return nil, err
	}

	if tpl.Truncated {
		b.logger.Warn("template tree truncated",
			"template_id", templateID,
			"max_days", b.maxDays,
			"max_meals_per_day", b.maxMealsPerDay,
		)
	}
	return tpl, nil
}

func (b *Builder) loadTemplate(ctx context.Context, id int) (*Template, error) {
	cur, err := b.engine.Query(ctx,
		"SELECT id, code, name, description, segment, type, duration_days, calories_target "+
			"FROM diet_templates WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("load template %d: %w", id, err)
	}
	defer cur.Close()

	if !cur.Next() {
		return nil, ErrTemplateNotFound
	}
	row := cur.Row()
	return &Template{
		ID:             row.Int(0),
		Code:           row.String(1),
		Name:           row.String(2),
		Description:    row.String(3),
		Segment:        row.String(4),
		Type:           row.String(5),
		DurationDays:   row.Int(6),
		CaloriesTarget: row.Int(7),
		Days:           []Day{},
	}, nil
}
