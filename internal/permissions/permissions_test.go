package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatic_DefaultsAndOverrides(t *testing.T) {
	p := NewDefault()

	assert.True(t, p.HasCapability("p1", AbilityUse))
	assert.True(t, p.HasCapability("p1", BanBoxEnter))
	assert.False(t, p.HasCapability("p1", AdminBypass))

	p.Grant("admin", AdminBypass)
	p.Deny("p2", AbilityBoss)

	assert.True(t, p.HasCapability("admin", AdminBypass))
	assert.False(t, p.HasCapability("p1", AdminBypass))
	assert.False(t, p.HasCapability("p2", AbilityBoss))
	assert.True(t, p.HasCapability("p2", AbilityUse))
}
