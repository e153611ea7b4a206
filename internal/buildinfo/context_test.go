package buildinfo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextGetters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ctx       *Context
		version   string
		buildDate string
	}{
		{name: "nil context", ctx: nil, version: UnknownValue, buildDate: UnknownValue},
		{name: "empty fields", ctx: NewContext("", ""), version: UnknownValue, buildDate: UnknownValue},
		{name: "release", ctx: NewContext("1.2.0", "2026-10-01"), version: "1.2.0", buildDate: "2026-10-01"},
		{name: "pre-release tag", ctx: NewContext("1.2.0-rc.1", ""), version: "1.2.0-rc.1", buildDate: UnknownValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.version, tt.ctx.GetVersion())
			assert.Equal(t, tt.buildDate, tt.ctx.GetBuildDate())
		})
	}
}

func TestContextString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.2.0 (built 2026-10-01)", NewContext("1.2.0", "2026-10-01").String())
	var c *Context
	assert.Equal(t, "unknown (built unknown)", c.String())
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	info := NewContext("1.2.0", "2026-10-01")
	ctx := WithContext(context.Background(), info)
	assert.Same(t, info, FromContext(ctx))

	assert.Nil(t, FromContext(context.Background()))
	assert.Equal(t, UnknownValue, FromContext(context.Background()).GetVersion())
}
