package game

// djModeState just lets you play music. Terminal; the only way out is the
// reset button on the back of the board.
type djModeState struct {
	base
}

func (s *djModeState) OnEnter(Params) {
	s.m.buzzer.RandomSong()
}

func (s *djModeState) OnRelease(btn int) {
	s.m.buzzer.RandomSong()
}
