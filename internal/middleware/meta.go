package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
	processingKey   = "processing_time_ms"
)

type responseMeta struct {
	start  time.Time
	values map[string]interface{}
}

// WithResponseMeta starts collecting envelope metadata for the request.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{start: time.Now(), values: map[string]interface{}{}})
		c.Next()
	}
}

// SetCacheHit records whether the payload came from the timetable cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitKey, hit)
}

// SetMeta stores one metadata value. It is a no-op outside WithResponseMeta.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if meta := lookupMeta(c); meta != nil {
		meta.values[key] = value
	}
}

// ExtractMeta returns a snapshot of the collected metadata with the elapsed
// processing time, or nil outside WithResponseMeta.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := lookupMeta(c)
	if meta == nil {
		return nil
	}
	out := make(map[string]interface{}, len(meta.values)+1)
	for k, v := range meta.values {
		out[k] = v
	}
	out[processingKey] = time.Since(meta.start).Milliseconds()
	return out
}

func lookupMeta(c *gin.Context) *responseMeta {
	if c == nil {
		return nil
	}
	value, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, _ := value.(*responseMeta)
	return meta
}
