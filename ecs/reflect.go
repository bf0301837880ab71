package ecs

import "reflect"

var entityType = reflect.TypeFor[Entity]()

// deepCopy replaces every settable slice and map reachable from v with a
// fresh copy so a cloned component never shares backing storage with its
// source. Pointers are copied shallowly.
func deepCopy(v reflect.Value) {
	if !hasIndirect(v.Type(), nil) {
		return
	}
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() || !v.CanSet() {
			return
		}
		dup := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(dup, v)
		v.Set(dup)
		for i := 0; i < dup.Len(); i++ {
			deepCopy(dup.Index(i))
		}
	case reflect.Map:
		if v.IsNil() || !v.CanSet() {
			return
		}
		dup := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			dup.SetMapIndex(iter.Key(), iter.Value())
		}
		v.Set(dup)
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			deepCopy(v.Index(i))
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if f := v.Field(i); f.CanSet() {
				deepCopy(f)
			}
		}
	}
}

// remapValue rewrites every settable Entity reachable from v whose value is a
// key of mapping. It reports whether anything changed.
func remapValue(v reflect.Value, mapping map[Entity]Entity) bool {
	if v.Type() == entityType {
		if !v.CanSet() {
			return false
		}
		if to, ok := mapping[Entity(v.Uint())]; ok {
			v.SetUint(uint64(to))
			return true
		}
		return false
	}
	if !containsEntity(v.Type()) {
		return false
	}

	changed := false
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if remapValue(v.Field(i), mapping) {
				changed = true
			}
		}
	case reflect.Array, reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if remapValue(v.Index(i), mapping) {
				changed = true
			}
		}
	}
	return changed
}

// containsEntity reports whether values of t can hold an Entity without
// following pointers.
func containsEntity(t reflect.Type) bool {
	return typeContains(t, func(t reflect.Type) bool { return t == entityType }, nil)
}

func hasIndirect(t reflect.Type, seen map[reflect.Type]bool) bool {
	return typeContains(t, func(t reflect.Type) bool {
		return t.Kind() == reflect.Slice || t.Kind() == reflect.Map
	}, seen)
}

func typeContains(t reflect.Type, match func(reflect.Type) bool, seen map[reflect.Type]bool) bool {
	if match(t) {
		return true
	}
	if seen == nil {
		seen = make(map[reflect.Type]bool)
	}
	if seen[t] {
		return false
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if typeContains(t.Field(i).Type, match, seen) {
				return true
			}
		}
	case reflect.Array, reflect.Slice:
		return typeContains(t.Elem(), match, seen)
	}
	return false
}
