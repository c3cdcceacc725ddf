package session

import (
	"fmt"
	"strings"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/interview"
)

type messageKey string

const (
	msgGreet     messageKey = "greet"
	msgConsent   messageKey = "consent"
	msgName      messageKey = "full_name"
	msgEmail     messageKey = "email"
	msgPhone     messageKey = "phone"
	msgYears     messageKey = "years_experience"
	msgPositions messageKey = "desired_positions"
	msgLocation  messageKey = "current_location"
	msgStack     messageKey = "tech_stack"
	msgThanks    messageKey = "thanks"
)

var catalog = map[string]map[messageKey]string{
	"en": {
		msgGreet:     "Hello! I'm TalentScout, the hiring assistant for technology roles. I'll gather a few details and then ask tailored technical questions; type 'exit' or 'bye' anytime to finish.",
		msgConsent:   "May I collect a few basic details to begin the screening? Reply 'yes' to proceed or 'exit' to stop.",
		msgName:      "What is the full name?",
		msgEmail:     "What is the email address?",
		msgPhone:     "What is the phone number with country code?",
		msgYears:     "How many years of professional experience?",
		msgPositions: "What position(s) are desired? (e.g., 'Backend Engineer; MLE')",
		msgLocation:  "What is the current location (City, Country)?",
		msgStack:     "Could you share the primary technologies worked with recently? For example: Python, Django, PostgreSQL, Docker.",
		msgThanks:    "Thanks for the time. This conversation is now closed. Expect a follow-up email with next steps.",
	},
	"hi": {
		msgGreet:     "नमस्ते! मैं TalentScout हूँ, तकनीकी भूमिकाओं के लिए भर्ती सहायक। कुछ विवरण लेकर उपयुक्त तकनीकी प्रश्न पूछूँगा; समाप्त करने के लिए 'exit' या 'bye' टाइप करें।",
		msgName:      "पूरा नाम क्या है?",
		msgEmail:     "ईमेल पता क्या है?",
		msgPhone:     "फ़ोन नंबर देश कोड सहित",
		msgYears:     "कुल अनुभव (वर्षों में) कितना है?",
		msgPositions: "वांछित पद क्या हैं? (उदा., 'Backend Engineer; MLE')",
		msgLocation:  "वर्तमान स्थान (शहर, देश) क्या है?",
		msgStack:     "हाल ही में किन तकनीकों पर काम किया है? उदाहरण: Python, Django, PostgreSQL, Docker.",
		msgThanks:    "समय देने के लिए धन्यवाद। यह वार्तालाप अब समाप्त है। आगे की प्रक्रिया की सूचना दी जाएगी।",
	},
}

const (
	msgDeclined     = "No problem. Type 'yes' to proceed with consent or 'exit' to end."
	msgInvalid      = "That doesn't look valid for %s. Please re-check and try again, or type 'exit' to finish."
	msgNoQuestions  = "Unable to prepare questions right now. Please try again or type 'exit' to finish."
	msgDone         = "Thanks for answering the questions. Type 'exit' to finish or share more details."
	msgNoMore       = "No more questions. Type 'exit' to finish or share more details."
	msgNoted        = "Noted. Type 'exit' to conclude, or add more details."
	msgClosed       = "This conversation is closed."
	msgEvaluation   = "Evaluation: %s."
	msgProgress     = "%d/%d answered"
	msgQuestionLine = "Q%d. [%s, %s] %s"
)

// text looks key up in the base language of lang ("hi" for "hi-IN"),
// falling back to English.
func text(lang string, key messageKey) string {
	base := strings.ToLower(strings.SplitN(strings.TrimSpace(lang), "-", 2)[0])
	if table, ok := catalog[base]; ok {
		if s, ok := table[key]; ok {
			return s
		}
	}
	return catalog[candidate.DefaultLanguage][key]
}

func prompt(lang string, f candidate.Field) string {
	return text(lang, messageKey(f))
}

func invalid(f candidate.Field) string {
	return fmt.Sprintf(msgInvalid, strings.ReplaceAll(string(f), "_", " "))
}

func questionLine(i int, q interview.Question) string {
	return fmt.Sprintf(msgQuestionLine, i+1, q.Topic, q.Difficulty, q.Question)
}

func evaluation(a interview.Answer) string {
	line := fmt.Sprintf(msgEvaluation, a.Verdict.Title())
	if fb := strings.TrimSpace(a.Feedback); fb != "" {
		line += " " + fb
	}
	return line
}

// Progress renders "i/n answered" for the question loop.
func Progress(s *Session) string {
	n := len(s.Questions)
	i := s.Index
	if i > n {
		i = n
	}
	return fmt.Sprintf(msgProgress, i, n)
}
