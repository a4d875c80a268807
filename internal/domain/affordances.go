package domain

// Affordances describes which message-bar controls the UI should show.
type Affordances struct {
	ShowSend     bool   `json:"showSend"`
	ShowRecord   bool   `json:"showRecord"`
	ShowAttach   bool   `json:"showAttach"`
	RecordActive bool   `json:"recordActive"`
	InputEnabled bool   `json:"inputEnabled"`
	Placeholder  string `json:"placeholder"`
}

// DeriveAffordances computes control visibility from the interaction mode, the
// recording flag, and whether the input draft has content. Placeholder text and
// input enablement follow the recording flag; the activation-dependent idle
// placeholder is filled in by the coordinator.
func DeriveAffordances(mode InteractionMode, isRecording bool, inputNonEmpty bool) Affordances {
	a := Affordances{
		RecordActive: isRecording,
		InputEnabled: !isRecording,
	}

	switch {
	case isRecording:
		a.ShowRecord = true
	case mode == ModeVoice && inputNonEmpty:
		a.ShowSend = true
	case mode == ModeVoice:
		a.ShowRecord = true
		a.ShowAttach = true
	default: // text mode
		a.ShowSend = true
		a.ShowAttach = true
	}

	return a
}
