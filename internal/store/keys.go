package store

import "fmt"

// keys builds namespaced keys: {prefix}:{resource}:{id}.
type keys struct {
	prefix string
}

func (k keys) item(id string) string        { return fmt.Sprintf("%s:item:%s", k.prefix, id) }
func (k keys) vendor(id string) string      { return fmt.Sprintf("%s:vendor:%s", k.prefix, id) }
func (k keys) community(id string) string   { return fmt.Sprintf("%s:community:%s", k.prefix, id) }
func (k keys) members(viewer string) string { return fmt.Sprintf("%s:members:%s", k.prefix, viewer) }

// Listing order of items (ZSET scored by first listing time).
func (k keys) items() string { return k.prefix + ":items" }

func (k keys) vendors() string     { return k.prefix + ":vendors" }
func (k keys) communities() string { return k.prefix + ":communities" }
