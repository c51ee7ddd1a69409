package cpu

import (
	"fmt"

	"github.com/joshuapare/gcdkit/pkg/types"
)

// AttributeSetter applies a cache type to a physical range.
// A non-nil error aborts the attribute change that triggered the call.
type AttributeSetter interface {
	ApplyHardwareAttributes(base, length uint64, cache CacheType) error
}

// CacheType is the single hardware memory type derived from an attribute mask.
type CacheType uint8

const (
	CacheNone CacheType = iota // no hardware translation
	CacheUncacheable
	CacheWriteCombining
	CacheWriteThrough
	CacheWriteBack
	CacheWriteProtected
)

var cacheNames = [...]string{
	CacheNone:           "none",
	CacheUncacheable:    "UC",
	CacheWriteCombining: "WC",
	CacheWriteThrough:   "WT",
	CacheWriteBack:      "WB",
	CacheWriteProtected: "WP",
}

func (c CacheType) String() string {
	if int(c) < len(cacheNames) {
		return cacheNames[c]
	}
	return fmt.Sprintf("CacheType(%d)", uint8(c))
}

// cacheOrder is the translation priority: the first bit present wins.
var cacheOrder = [...]struct {
	attr  types.Attribute
	cache CacheType
}{
	{types.AttrUC, CacheUncacheable},
	{types.AttrWC, CacheWriteCombining},
	{types.AttrWT, CacheWriteThrough},
	{types.AttrWB, CacheWriteBack},
	{types.AttrWP, CacheWriteProtected},
}

// CacheTypeOf returns the cache type for attrs, or CacheNone if attrs carries
// none of UC, WC, WT, WB or WP.
func CacheTypeOf(attrs types.Attribute) CacheType {
	for _, o := range cacheOrder {
		if attrs&o.attr != 0 {
			return o.cache
		}
	}
	return CacheNone
}
