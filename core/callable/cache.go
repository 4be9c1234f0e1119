package callable

import (
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"
)

const specCacheSize = 256

// specCache holds derived specs per struct type. Entries are never handed out
// directly, callers always receive a clone.
var specCache = newSpecCache(specCacheSize)

func newSpecCache(size int) *lru.Cache[reflect.Type, *Spec] {
	cache, err := lru.New[reflect.Type, *Spec](size)
	if err != nil {
		panic(err)
	}
	return cache
}
