package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]KindDefinition)
	registryMu sync.RWMutex
)

// Register adds an import kind. It panics on a duplicate key or when a
// target column refers to a field the kind does not declare.
func Register(def KindDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if def.Info.Key == "" {
		panic("import kind registered without a key")
	}
	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("import kind already registered: %s", def.Info.Key))
	}

	declared := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		declared[f.Key] = true
	}
	for _, col := range def.Target.Columns {
		if !declared[col.Field] {
			panic(fmt.Sprintf("import kind %s: column %s maps undeclared field %q", def.Info.Key, col.Name, col.Field))
		}
	}

	registry[def.Info.Key] = def
}

// Get returns the kind registered under key.
func Get(key string) (KindDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns every registered kind sorted by key.
func All() []KindDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]KindDefinition, 0, len(registry))
	for _, def := range registry {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Info.Key < out[j].Info.Key })
	return out
}

// Keys returns the registered kind keys in sorted order.
func Keys() []string {
	defs := All()
	keys := make([]string, len(defs))
	for i, d := range defs {
		keys[i] = d.Info.Key
	}
	return keys
}

// Clear removes all kinds. Tests only.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]KindDefinition)
}
