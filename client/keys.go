package client

import (
	"tetrix/tetris"

	"github.com/eiannone/keyboard"
)

// binding is the player and command a terminal key stands for.
type binding struct {
	player int
	key    tetris.Key
}

type keyMap struct {
	keys  map[keyboard.Key]binding
	runes map[rune]binding
}

func (m keyMap) lookup(e keyboard.KeyEvent) (binding, bool) {
	if e.Key != 0 {
		b, ok := m.keys[e.Key]
		return b, ok
	}
	b, ok := m.runes[e.Rune]
	return b, ok
}

var singleKeys = keyMap{
	keys: map[keyboard.Key]binding{
		keyboard.KeyArrowDown:  {0, tetris.KeyFall},
		keyboard.KeyArrowLeft:  {0, tetris.KeyLeft},
		keyboard.KeyArrowRight: {0, tetris.KeyRight},
		keyboard.KeyArrowUp:    {0, tetris.KeyRotateClockwise},
		keyboard.KeySpace:      {0, tetris.KeyHardDrop},
	},
	runes: map[rune]binding{
		's': {0, tetris.KeyFall},
		'a': {0, tetris.KeyLeft},
		'd': {0, tetris.KeyRight},
		'e': {0, tetris.KeyRotateClockwise},
		'w': {0, tetris.KeyRotateClockwise},
		'q': {0, tetris.KeyRotateCounterClockwise},
		'c': {0, tetris.KeyHold},
		'r': {0, tetris.KeyRestart},
		'p': {0, tetris.KeyPause},
	},
}

// versusKeys splits the keyboard, the left player on the letters and the right one
// on the arrows and the keys around them.
var versusKeys = keyMap{
	keys: map[keyboard.Key]binding{
		keyboard.KeyArrowDown:  {1, tetris.KeyFall},
		keyboard.KeyArrowLeft:  {1, tetris.KeyLeft},
		keyboard.KeyArrowRight: {1, tetris.KeyRight},
		keyboard.KeyArrowUp:    {1, tetris.KeyRotateClockwise},
		keyboard.KeyEnter:      {1, tetris.KeyHardDrop},
		keyboard.KeySpace:      {0, tetris.KeyHardDrop},
	},
	runes: map[rune]binding{
		's': {0, tetris.KeyFall},
		'a': {0, tetris.KeyLeft},
		'd': {0, tetris.KeyRight},
		'w': {0, tetris.KeyRotateClockwise},
		'q': {0, tetris.KeyRotateCounterClockwise},
		'e': {0, tetris.KeyHold},
		'.': {1, tetris.KeyRotateCounterClockwise},
		'/': {1, tetris.KeyHold},
		'p': {0, tetris.KeyPause},
		'r': {0, tetris.KeyRestart},
		'o': {1, tetris.KeyRestart},
	},
}

// events turns a terminal key into what the engine expects. Terminals don't report
// key releases, so every key is pressed and released at once and holding a key
// relies on the terminal auto repeat.
func (m keyMap) events(e keyboard.KeyEvent) (int, []tetris.KeyEvent, bool) {
	b, ok := m.lookup(e)
	if !ok {
		return 0, nil, false
	}
	return b.player, []tetris.KeyEvent{{Key: b.key, Down: true}, {Key: b.key}}, true
}
