package debugui

import (
	"reflect"
	"sync"

	"github.com/plus3/scenegraph/ecs"
)

var entityType = reflect.TypeFor[ecs.Entity]()

type FieldInfo struct {
	Name     string
	Type     reflect.Type
	Index    int
	IsEntity bool
	// IsVector marks small float32 arrays such as mgl32.Vec3
	IsVector bool
	// IsMatrix marks 16 element float32 arrays such as mgl32.Mat4
	IsMatrix bool
}

// ReflectionCache memoizes the exported fields of component types
type ReflectionCache struct {
	mu         sync.RWMutex
	fieldCache map[reflect.Type][]FieldInfo
}

func NewReflectionCache() *ReflectionCache {
	return &ReflectionCache{
		fieldCache: make(map[reflect.Type][]FieldInfo),
	}
}

func isFloatArray(t reflect.Type) bool {
	return t.Kind() == reflect.Array && t.Elem().Kind() == reflect.Float32
}

func (rc *ReflectionCache) GetFields(t reflect.Type) []FieldInfo {
	rc.mu.RLock()
	cached, ok := rc.fieldCache[t]
	rc.mu.RUnlock()
	if ok {
		return cached
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if cached, ok := rc.fieldCache[t]; ok {
		return cached
	}

	var fields []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			fields = append(fields, FieldInfo{
				Name:     field.Name,
				Type:     field.Type,
				Index:    i,
				IsEntity: field.Type == entityType,
				IsVector: isFloatArray(field.Type) && field.Type.Len() <= 4,
				IsMatrix: isFloatArray(field.Type) && field.Type.Len() == 16,
			})
		}
	}

	rc.fieldCache[t] = fields
	return fields
}

var globalReflectionCache = NewReflectionCache()
