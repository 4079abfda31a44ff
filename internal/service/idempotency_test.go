package service

import (
	"strings"
	"testing"
	"time"

	"facilityops/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyCode(t *testing.T) {
	assert.Equal(t, "HQ", PropertyCode(&model.Property{Code: " hq "}, ""))
	assert.Equal(t, "GRANDP", PropertyCode(&model.Property{Name: "Grand Plaza Tower"}, ""))
	assert.Equal(t, "PROP", PropertyCode(&model.Property{Name: "--"}, ""))
	assert.Equal(t, "FAC", PropertyCode(nil, "FAC"))
}

func TestKeyGenerator_SameWindowSameKey(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 3, 0, time.UTC)
	gen := NewKeyGenerator(10*time.Second, func() time.Time { return now })
	actor := uuid.New()
	property := uuid.New()

	first := gen.Generate("HQ", property, actor, "submit", "")
	now = now.Add(4 * time.Second)
	second := gen.Generate("HQ", property, actor, "submit", "")

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "HQ-20240115103000-"), first)
	assert.Len(t, first, len("HQ-20240115103000-")+8)
}

func TestKeyGenerator_DistinguishesActorActionAndWindow(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	gen := NewKeyGenerator(10*time.Second, func() time.Time { return now })
	actor := uuid.New()
	property := uuid.New()

	base := gen.Generate("HQ", property, actor, "submit", "")
	assert.NotEqual(t, base, gen.Generate("HQ", property, uuid.New(), "submit", ""))
	assert.NotEqual(t, base, gen.Generate("HQ", property, actor, "draft", ""))

	now = now.Add(10 * time.Second)
	assert.NotEqual(t, base, gen.Generate("HQ", property, actor, "submit", ""))
}

func TestKeyGenerator_ClientKeyIgnoresWindow(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	gen := NewKeyGenerator(10*time.Second, func() time.Time { return now })
	actor := uuid.New()
	property := uuid.New()

	first := gen.Generate("HQ", property, actor, "submit", "click-42")
	now = now.Add(time.Hour)
	assert.Equal(t, first, gen.Generate("HQ", property, actor, "submit", "click-42"))
	assert.True(t, strings.HasPrefix(first, "HQ-C-"))
	assert.NotEqual(t, first, gen.Generate("HQ", property, actor, "submit", "click-43"))
}

func TestKeyGenerator_DistinguishesPropertiesSharingACode(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	gen := NewKeyGenerator(10*time.Second, func() time.Time { return now })
	actor := uuid.New()
	code := PropertyCode(&model.Property{Name: "Building 12"}, "")
	require.Equal(t, code, PropertyCode(&model.Property{Name: "Building 13"}, ""))

	a, b := uuid.New(), uuid.New()
	assert.NotEqual(t, gen.Generate(code, a, actor, "submit", ""), gen.Generate(code, b, actor, "submit", ""))
	assert.NotEqual(t, gen.Generate(code, a, actor, "submit", "k"), gen.Generate(code, b, actor, "submit", "k"))
}
