package game

// awakeState is the resting state: a jump table into everything else.
type awakeState struct {
	base
}

func (s *awakeState) OnPush(btn int) {
	if btn == 3 {
		s.m.GoTo(StateSearching, Params{})
	}
}

func (s *awakeState) OnRelease(btn int) {
	switch btn {
	case 2:
		s.m.GoTo(StateRoundSync, Params{})
	case 0:
		s.m.GoTo(StateDJMode, Params{})
	case 1:
		s.m.buzzer.RandomSong()
	}
}
