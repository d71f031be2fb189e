package dialogue

// OutcomeKind tags the single artifact produced per call turn.
type OutcomeKind string

const (
	OutcomeSpeak            OutcomeKind = "speak"
	OutcomeSpeakAndGather   OutcomeKind = "speak_and_gather"
	OutcomeTransfer         OutcomeKind = "transfer"
	OutcomeSpeakAndTransfer OutcomeKind = "speak_and_transfer"
	// OutcomeAcknowledge carries no commands; used for events the dialogue ignores.
	OutcomeAcknowledge OutcomeKind = "acknowledge"
)

// GatherOptions configures a speech collection window.
type GatherOptions struct {
	Language          string
	Hints             []string
	SpeechTimeout     int
	InterDigitTimeout int
}

// Destination is where a live transfer dials.
type Destination struct {
	To   string
	From string
}

// Outcome is the declarative result of one turn. Which fields are set
// depends on Kind.
type Outcome struct {
	Kind     OutcomeKind
	Text     string
	Gather   *GatherOptions
	Transfer *Destination
}

func Speak(text string) Outcome {
	return Outcome{Kind: OutcomeSpeak, Text: text}
}

func SpeakAndGather(text string, opts GatherOptions) Outcome {
	return Outcome{Kind: OutcomeSpeakAndGather, Text: text, Gather: &opts}
}

func Transfer(dest Destination) Outcome {
	return Outcome{Kind: OutcomeTransfer, Transfer: &dest}
}

func SpeakAndTransfer(text string, dest Destination) Outcome {
	return Outcome{Kind: OutcomeSpeakAndTransfer, Text: text, Transfer: &dest}
}

func Acknowledge() Outcome {
	return Outcome{Kind: OutcomeAcknowledge}
}

// IsTransfer reports whether the outcome hands the caller to a human.
func (o Outcome) IsTransfer() bool {
	return o.Kind == OutcomeTransfer || o.Kind == OutcomeSpeakAndTransfer
}
