package main

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// isStopKey reports whether ev is a fresh press of keyCode. Auto-repeats and
// releases are ignored.
func isStopKey(ev inputEvent, keyCode int) bool {
	return ev.Type == EV_KEY && int(ev.Code) == keyCode && ev.Value == evValuePress
}
