package tui

import "github.com/verte-zerg/tuiear/internal/model"

// guessOctave is the octave played by the computer keyboard. Guesses are
// matched by pitch class, so the octave only matters for display.
const guessOctave = 4

// pianoKeys lays the chromatic scale over the home row, black keys above.
var pianoKeys = map[rune]model.Note{
	'a': model.NewNote(0, guessOctave),
	'w': model.NewNote(1, guessOctave),
	's': model.NewNote(2, guessOctave),
	'e': model.NewNote(3, guessOctave),
	'd': model.NewNote(4, guessOctave),
	'f': model.NewNote(5, guessOctave),
	't': model.NewNote(6, guessOctave),
	'g': model.NewNote(7, guessOctave),
	'y': model.NewNote(8, guessOctave),
	'h': model.NewNote(9, guessOctave),
	'u': model.NewNote(10, guessOctave),
	'j': model.NewNote(11, guessOctave),
	'k': model.NewNote(0, guessOctave+1),
}

func noteForKey(r rune) (model.Note, bool) {
	n, ok := pianoKeys[r]
	return n, ok
}
