package domain

import "testing"

func TestDeriveAffordances(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		mode          InteractionMode
		isRecording   bool
		inputNonEmpty bool
		want          Affordances
	}{
		{
			name: "voice idle empty",
			mode: ModeVoice,
			want: Affordances{ShowRecord: true, ShowAttach: true, InputEnabled: true},
		},
		{
			name:          "voice idle with draft",
			mode:          ModeVoice,
			inputNonEmpty: true,
			want:          Affordances{ShowSend: true, InputEnabled: true},
		},
		{
			name:        "voice recording",
			mode:        ModeVoice,
			isRecording: true,
			want:        Affordances{ShowRecord: true, RecordActive: true},
		},
		{
			name:          "voice recording with stale draft",
			mode:          ModeVoice,
			isRecording:   true,
			inputNonEmpty: true,
			want:          Affordances{ShowRecord: true, RecordActive: true},
		},
		{
			name: "text idle empty",
			mode: ModeText,
			want: Affordances{ShowSend: true, ShowAttach: true, InputEnabled: true},
		},
		{
			name:          "text idle with draft",
			mode:          ModeText,
			inputNonEmpty: true,
			want:          Affordances{ShowSend: true, ShowAttach: true, InputEnabled: true},
		},
		{
			name:        "text recording",
			mode:        ModeText,
			isRecording: true,
			want:        Affordances{ShowRecord: true, RecordActive: true},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := DeriveAffordances(tc.mode, tc.isRecording, tc.inputNonEmpty)
			if got != tc.want {
				t.Fatalf("unexpected affordances:\n got %+v\nwant %+v", got, tc.want)
			}
		})
	}
}

func TestInteractionModeValid(t *testing.T) {
	t.Parallel()

	if !ModeVoice.Valid() || !ModeText.Valid() {
		t.Fatal("known modes must be valid")
	}
	if InteractionMode("loud").Valid() {
		t.Fatal("unknown mode must be invalid")
	}
}
