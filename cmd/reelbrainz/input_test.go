package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	keyQ   = 16
	keyF12 = 88

	evValueRelease = 0
	evValueRepeat  = 2
)

func TestIsStopKey(t *testing.T) {
	press := inputEvent{Type: EV_KEY, Code: KEY_ESC, Value: evValuePress}
	assert.True(t, isStopKey(press, KEY_ESC))

	assert.False(t, isStopKey(inputEvent{Type: EV_KEY, Code: KEY_ESC, Value: evValueRelease}, KEY_ESC))
	assert.False(t, isStopKey(inputEvent{Type: EV_KEY, Code: KEY_ESC, Value: evValueRepeat}, KEY_ESC))
	assert.False(t, isStopKey(inputEvent{Type: EV_KEY, Code: keyQ, Value: evValuePress}, KEY_ESC))
	assert.False(t, isStopKey(inputEvent{Type: 0x02, Code: KEY_ESC, Value: evValuePress}, KEY_ESC))
	assert.True(t, isStopKey(inputEvent{Type: EV_KEY, Code: keyF12, Value: evValuePress}, keyF12))
}
