package usecase

// Fixed user-facing strings. The transcript and banner wording is part of the
// client's observable contract and is matched by tests.
const (
	networkErrorText   = "Network error: Couldn't connect to Kitty. Please check your connection or server status."
	voiceInputText     = "(Voice input...)"
	micPermissionText  = "Could not access microphone. Please allow microphone permissions and try again."
	bannerActiveText   = "Kitty is active and listening!"
	bannerDormantText  = "Say 'Kitty' to activate me."
	placeholderActive  = "Ask Kitty..."
	placeholderDormant = "Say 'Kitty' to activate me."
	placeholderRecords = "Recording... Speak clearly."
)

func bannerText(active bool) string {
	if active {
		return bannerActiveText
	}
	return bannerDormantText
}

func idlePlaceholder(active bool) string {
	if active {
		return placeholderActive
	}
	return placeholderDormant
}
