package domain

// InteractionMode selects whether assistant replies prefer spoken audio or text.
type InteractionMode string

const (
	ModeVoice InteractionMode = "voice"
	ModeText  InteractionMode = "text"
)

// Valid reports whether the mode is one of the two known values.
func (m InteractionMode) Valid() bool {
	return m == ModeVoice || m == ModeText
}

// Page identifies which top-level page the UI should show.
type Page string

const (
	PageLogin Page = "login"
	PageChat  Page = "chat"
)

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// TranscriptEntry is one rendered line of the conversation.
type TranscriptEntry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// ChatReply is the response envelope shared by the text and audio chat endpoints.
type ChatReply struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	ResponseText   string `json:"response_text,omitempty"`
	WakeMode       bool   `json:"wake_mode"`
	AudioData      string `json:"audio_data,omitempty"`
	AudioMimeType  string `json:"audio_mime_type,omitempty"`
	RecognizedText string `json:"user_message_recognized,omitempty"`
}

// ErrorCode identifies non-fatal backend errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup     ErrorCode = "startup"
	ErrorCodeValidation  ErrorCode = "validation"
	ErrorCodePermission  ErrorCode = "permission"
	ErrorCodeTransport   ErrorCode = "transport"
	ErrorCodeApplication ErrorCode = "application"
	ErrorCodeDecode      ErrorCode = "decode"
	ErrorCodeCapture     ErrorCode = "capture"
	ErrorCodeHistory     ErrorCode = "history"
)

// Status summarizes the coordinator's current state for the UI.
type Status struct {
	Page      Page            `json:"page"`
	Username  string          `json:"username,omitempty"`
	Mode      InteractionMode `json:"mode"`
	Activated bool            `json:"activated"`
	Recording bool            `json:"recording"`
}
