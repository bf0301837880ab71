package scene

import (
	"github.com/plus3/scenegraph/ecs"
	"go.uber.org/zap"
)

type warnKey struct {
	kind   string
	entity ecs.Entity
}

// warnOnce logs a warning the first time a (kind, entity) pair is reported.
// Clearing the pair re-arms it so a later regression is logged again.
type warnOnce struct {
	log  *zap.Logger
	seen map[warnKey]struct{}
}

func newWarnOnce(log *zap.Logger) *warnOnce {
	return &warnOnce{log: log, seen: make(map[warnKey]struct{})}
}

func (w *warnOnce) Warn(kind string, e ecs.Entity, msg string, fields ...zap.Field) {
	key := warnKey{kind: kind, entity: e}
	if _, ok := w.seen[key]; ok {
		return
	}
	w.seen[key] = struct{}{}
	w.log.Warn(msg, append(fields, zap.String("kind", kind), zap.Stringer("entity", e))...)
}

func (w *warnOnce) Clear(kind string, e ecs.Entity) {
	delete(w.seen, warnKey{kind: kind, entity: e})
}

// Forget drops every key recorded for e
func (w *warnOnce) Forget(e ecs.Entity) {
	for key := range w.seen {
		if key.entity == e {
			delete(w.seen, key)
		}
	}
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
