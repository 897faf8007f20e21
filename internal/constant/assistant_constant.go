package constant

// SystemPrompt is prepended to every voice turn sent to the language model.
const SystemPrompt = `You are Mira, a warm and efficient personal assistant. ` +
	`You help the user stay on top of their email, calendar, tasks and reminders. ` +
	`Answer in one or two short spoken sentences. Never read out raw IDs or URLs.`

// TranscriptionApology is returned when speech-to-text fails on both attempts.
// No reply can be grounded without recognized text, so the turn ends here.
const TranscriptionApology = "Sorry, I couldn't hear that properly. Could you try again?"

// DidNotCatchReply is returned when the transcript is too short or is only
// filler, without spending a language model call.
const DidNotCatchReply = "I didn't catch that. Could you say it again?"

// CompletionApology substitutes for the reply when the language model fails;
// the turn itself still succeeds.
const CompletionApology = "I'm having trouble thinking right now. Please give me a moment and try again."

// FillerWords are transcripts that carry no intent. A transcript consisting
// solely of these is dropped before the language model is called.
var FillerWords = map[string]bool{
	"um":   true,
	"uh":   true,
	"uhm":  true,
	"hmm":  true,
	"hm":   true,
	"ah":   true,
	"er":   true,
	"huh":  true,
	"like": true,
	"so":   true,
	"okay": true,
	"ok":   true,
	"yeah": true,
	"the":  true,
	"a":    true,
	"you":  true,
	"know": true,
}
