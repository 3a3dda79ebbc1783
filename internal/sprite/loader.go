// Package sprite loads combatant images and fits them to their stage slots.
package sprite

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samdwyer/battleclock/internal/combat"
	"github.com/samdwyer/battleclock/internal/gamedata"
	"github.com/samdwyer/battleclock/internal/telemetry"
	"github.com/samdwyer/battleclock/internal/world"
)

// Per-side asset directories under the asset root.
const (
	FrontDir = "front"
	BackDir  = "back"
)

// ErrNoDefinition is returned when a load is requested without a combatant.
var ErrNoDefinition = errors.New("no combatant definition")

// Sprite is a decoded image sized for its slot.
type Sprite struct {
	Name  string
	Side  combat.Side
	Image *image.NRGBA
}

// Bounds returns the sprite dimensions.
func (s *Sprite) Bounds() image.Rectangle {
	return s.Image.Bounds()
}

// Loader reads sprite files from an asset directory.
type Loader struct {
	root  string
	sizes [2]image.Point
	log   logr.Logger
}

// NewLoader creates a loader rooted at dir, sizing each side to its stage slot.
func NewLoader(dir string, stage world.Stage, log logr.Logger) *Loader {
	l := &Loader{root: dir, log: log}
	for _, side := range combat.Sides {
		box := stage.Slots[side].Size
		l.sizes[side] = image.Pt(box.Width, box.Height)
	}
	return l
}

// Path returns the file a side's sprite for def is read from.
func (l *Loader) Path(side combat.Side, def *gamedata.CombatantDef) string {
	dir := FrontDir
	if side == combat.Back {
		dir = BackDir
	}
	return filepath.Join(l.root, dir, def.File)
}

// Load reads and decodes the sprite for def on the given side. Images that
// don't match the slot size are scaled with nearest-neighbour sampling so
// pixel art stays crisp.
func (l *Loader) Load(ctx context.Context, side combat.Side, def *gamedata.CombatantDef) (*Sprite, error) {
	if def == nil {
		return nil, ErrNoDefinition
	}

	tracer := telemetry.Tracer("sprite")
	ctx, span := tracer.Start(ctx, "sprite.load")
	defer span.End()

	path := l.Path(side, def)
	span.SetAttributes(
		attribute.String("combatant", def.Name),
		attribute.String("side", side.String()),
		attribute.String("path", path),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := imaging.Open(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return nil, fmt.Errorf("failed to load sprite %s: %w", path, err)
	}

	want := l.sizes[side]
	var img *image.NRGBA
	if src.Bounds().Size() == want {
		img = imaging.Clone(src)
	} else {
		img = imaging.Resize(src, want.X, want.Y, imaging.NearestNeighbor)
		l.log.V(1).Info("sprite resized", "name", def.Name, "side", side.String(),
			"from", src.Bounds().Size().String(), "to", want.String())
	}

	return &Sprite{Name: def.Name, Side: side, Image: img}, nil
}
