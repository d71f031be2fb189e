package callcontrol

import (
	"github.com/baughelectric/call-assistant/internal/dialogue"
)

// Command types understood by the platform.
const (
	CommandSpeak  = "speak"
	CommandGather = "gather_using_speech"
	CommandDial   = "dial"
)

const acknowledgeMessage = "Webhook received"

// Response is the JSON body returned to the platform.
type Response struct {
	Commands []Command `json:"commands"`
	Message  string    `json:"message,omitempty"`
}

// Command is one declarative instruction. Params is one of SpeakParams,
// GatherParams, or DialParams.
type Command struct {
	Type   string `json:"type"`
	Params any    `json:"params"`
}

type SpeakParams struct {
	Voice   string `json:"voice"`
	Payload string `json:"payload"`
}

type GatherParams struct {
	Language          string   `json:"language"`
	Hints             []string `json:"hints,omitempty"`
	SpeechTimeout     int      `json:"speech_timeout"`
	InterDigitTimeout int      `json:"inter_digit_timeout,omitempty"`
}

type DialParams struct {
	To   string `json:"to"`
	From string `json:"from"`
}

// Compiler renders dialogue outcomes into platform commands.
type Compiler struct {
	Voice string
}

// Compile maps exactly one outcome to its command list. Commands is never
// nil so the body always carries "commands": [].
func (c Compiler) Compile(out dialogue.Outcome) Response {
	cmds := make([]Command, 0, 2)
	switch out.Kind {
	case dialogue.OutcomeSpeak:
		cmds = append(cmds, c.speak(out.Text))
	case dialogue.OutcomeSpeakAndGather:
		cmds = append(cmds, c.speak(out.Text))
		if out.Gather != nil {
			cmds = append(cmds, gather(*out.Gather))
		}
	case dialogue.OutcomeTransfer:
		if out.Transfer != nil {
			cmds = append(cmds, dial(*out.Transfer))
		}
	case dialogue.OutcomeSpeakAndTransfer:
		cmds = append(cmds, c.speak(out.Text))
		if out.Transfer != nil {
			cmds = append(cmds, dial(*out.Transfer))
		}
	default:
		return Response{Commands: cmds, Message: acknowledgeMessage}
	}
	return Response{Commands: cmds}
}

func (c Compiler) speak(text string) Command {
	voice := c.Voice
	if voice == "" {
		voice = "female"
	}
	return Command{Type: CommandSpeak, Params: SpeakParams{Voice: voice, Payload: text}}
}

func gather(opts dialogue.GatherOptions) Command {
	return Command{Type: CommandGather, Params: GatherParams{
		Language:          opts.Language,
		Hints:             opts.Hints,
		SpeechTimeout:     opts.SpeechTimeout,
		InterDigitTimeout: opts.InterDigitTimeout,
	}}
}

func dial(dest dialogue.Destination) Command {
	return Command{Type: CommandDial, Params: DialParams{To: dest.To, From: dest.From}}
}
