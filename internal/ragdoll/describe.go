package ragdoll

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Describe writes the link tree, one link per line, indented by depth.
func (c *Control) Describe(w io.Writer) error {
	if !c.IsAttached() {
		return ErrNotAttached
	}
	var walk func(l *Link, depth int) error
	walk = func(l *Link, depth int) error {
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), l.summary()); err != nil {
			return err
		}
		for _, id := range l.children {
			if err := walk(c.links[id], depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(c.Torso(), 0)
}

// LogTree logs one entry per link at the given level.
func (c *Control) LogTree(level zapcore.Level) {
	for _, l := range c.links {
		ce := c.logger.Check(level, "link")
		if ce == nil {
			return
		}
		parent := ""
		if p := l.Parent(); p != nil {
			parent = p.name
		}
		ce.Write(
			zap.String("name", l.name),
			zap.Stringer("kind", l.kind),
			zap.String("parent", parent),
			zap.Float32("weight", l.kinematicWeight),
			zap.Uint32("body", uint32(l.body)),
			zap.Uint32("joint", uint32(l.joint)),
			zap.Strings("bones", l.ManagedBones()))
	}
}

func (l *Link) summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] weight=%.3f", l.name, l.kind, l.kinematicWeight)
	if l.IsKinematic() && l.kinematicWeight < 1 {
		fmt.Fprintf(&b, " blending(%.2fs)", l.blendInterval)
	}
	if !l.IsKinematic() {
		g := l.gravity
		fmt.Fprintf(&b, " dynamic gravity=(%.2f %.2f %.2f)", g.X, g.Y, g.Z)
	}
	if len(l.bones) > 0 {
		fmt.Fprintf(&b, " bones=%s", strings.Join(l.ManagedBones(), ","))
	}
	switch {
	case l.IsReleased():
		b.WriteString(" released")
	case l.amputated:
		b.WriteString(" amputated")
	}
	if l.IsPinned() {
		b.WriteString(" pinned")
	}
	return b.String()
}
