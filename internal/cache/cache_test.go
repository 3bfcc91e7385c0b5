package cache

import (
	"context"
	"testing"
	"time"
)

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Hour)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Nop cache should never hit")
	}
	c.Delete(ctx, "k")
}
