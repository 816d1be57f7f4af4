package tetris

import "github.com/kamstrup/intmap"

// Key is a command already translated from whatever device produced it.
type Key uint8

const (
	KeyFall Key = iota
	KeyLeft
	KeyRight
	KeyRotateClockwise
	KeyRotateCounterClockwise
	KeyHardDrop
	KeyHold
	KeyRestart
	KeyPause
	numKeys
)

var keyNames = [numKeys]string{
	KeyFall:                   "fall",
	KeyLeft:                   "left",
	KeyRight:                  "right",
	KeyRotateClockwise:        "rotatecw",
	KeyRotateCounterClockwise: "rotateccw",
	KeyHardDrop:               "drop",
	KeyHold:                   "hold",
	KeyRestart:                "restart",
	KeyPause:                  "pause",
}

func (k Key) String() string {
	if k < numKeys {
		return keyNames[k]
	}
	return "unknown"
}

// KeyEvent is a key going down or up.
type KeyEvent struct {
	Key  Key
	Down bool
}

// keyState tells a key pressed in this tick apart from a key held for a while.
//
// A press arms a countdown to delay, a release removes it and every tick
// decrements it. Once it reaches zero the key is long pressed and actions
// that repeat while held start repeating.
type keyState struct {
	delay     uint32
	countdown *intmap.Map[Key, uint32]
	pressed   *intmap.Map[Key, bool] // went down since the last tick
}

func newKeyState(delay uint32) *keyState {
	return &keyState{
		delay:     delay,
		countdown: intmap.New[Key, uint32](int(numKeys)),
		pressed:   intmap.New[Key, bool](int(numKeys)),
	}
}

func (k *keyState) handle(e KeyEvent) {
	if !e.Down {
		k.countdown.Del(e.Key)
		return
	}
	if _, held := k.countdown.Get(e.Key); held {
		// auto repeat from the device, the key never went up.
		return
	}
	k.countdown.Put(e.Key, k.delay)
	k.pressed.Put(e.Key, true)
}

// held reports whether the key is down.
func (k *keyState) held(key Key) bool {
	_, ok := k.countdown.Get(key)
	return ok
}

// justPressed is only true during the tick following the press.
func (k *keyState) justPressed(key Key) bool {
	_, ok := k.pressed.Get(key)
	return ok
}

// longPressed reports whether the key has been held for at least delay ticks.
func (k *keyState) longPressed(key Key) bool {
	c, ok := k.countdown.Get(key)
	return ok && c == 0
}

// tick advances every countdown and forgets the presses of the tick that ended.
func (k *keyState) tick() {
	var armed [numKeys]Key
	n := 0
	k.countdown.ForEach(func(key Key, c uint32) bool {
		if c > 0 {
			armed[n] = key
			n++
		}
		return true
	})
	for _, key := range armed[:n] {
		c, _ := k.countdown.Get(key)
		k.countdown.Put(key, c-1)
	}
	k.pressed.Clear()
}

func (k *keyState) reset() {
	k.countdown.Clear()
	k.pressed.Clear()
}
