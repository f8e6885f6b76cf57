package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivate_AllKindsToggle(t *testing.T) {
	c := NewController(nil, "summon", nil, nil)

	toggles := 0
	c.SetActivateCallback(func() { toggles++ })

	c.Activate(Click)
	c.Activate(RightClick)
	c.Activate(DoubleClick)
	assert.Equal(t, 3, toggles)
}

func TestActivate_Dispatched(t *testing.T) {
	var queue []func()
	c := NewController(nil, "summon", func(fn func()) { queue = append(queue, fn) }, nil)

	toggles := 0
	c.SetActivateCallback(func() { toggles++ })

	c.Activate(Click)
	assert.Equal(t, 0, toggles)
	assert.Len(t, queue, 1)

	queue[0]()
	assert.Equal(t, 1, toggles)
}

func TestActivate_NoCallback(t *testing.T) {
	c := NewController(nil, "summon", nil, nil)
	assert.NotPanics(t, func() { c.Activate(DoubleClick) })
}

func TestDefaultIcon(t *testing.T) {
	c := NewController(nil, "summon", nil, nil)
	assert.Equal(t, defaultIcon, c.icon)
	assert.Equal(t, []byte("\x89PNG"), c.icon[:4])
}

func TestActivation_String(t *testing.T) {
	assert.Equal(t, "click", Click.String())
	assert.Equal(t, "right-click", RightClick.String())
	assert.Equal(t, "double-click", DoubleClick.String())
}
