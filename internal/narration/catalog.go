// Package narration holds the localized lines spoken and displayed during a race.
package narration

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// BaseLocale is the locale used when a requested one is not supported.
const BaseLocale = "pt-BR"

const (
	keyWelcome        = "race.welcome"
	keyRollPrompt     = "race.roll_prompt"
	keyRolled         = "race.rolled."
	keySquare         = "race.square."
	keyWon            = "race.won."
	keyComputerTurn   = "race.computer_turn"
	keyYourTurn       = "race.your_turn"
	keyListening      = "race.listening"
	keyNotUnderstood  = "race.not_understood"
	keyVoiceMissing   = "race.voice_unsupported"
	keyRollLabel      = "race.button.roll"
	keyRestartLabel   = "race.button.restart"
	keyFinishLabel    = "race.board.finish"
	keyStartLabel     = "race.board.start"
	keyHumanName      = "race.name.human"
	keyComputerName   = "race.name.computer"
	keyConnectionLost = "race.connection_lost"
)

type locale struct {
	messages map[string]string
	keywords []string
	rate     float64
}

var locales = map[language.Tag]locale{
	language.BrazilianPortuguese: {
		messages: map[string]string{
			keyWelcome:              "Bem-vindo à Corrida Cósmica! É a sua vez.",
			keyRollPrompt:           "Sua vez de jogar...",
			keyRolled + "human":     "Você tirou %d!",
			keyRolled + "computer":  "O computador tirou %d!",
			keySquare + "human":     "Você está na casa %d.",
			keySquare + "computer":  "O computador está na casa %d.",
			keyWon + "human":        "Você venceu a corrida cósmica!",
			keyWon + "computer":     "O computador venceu a corrida cósmica!",
			keyComputerTurn:         "Vez do computador...",
			keyYourTurn:             "Sua vez. Lance o dado!",
			keyListening:            "Ouvindo... Diga 'jogar'!",
			keyNotUnderstood:        "Não consegui entender. Tente novamente.",
			keyVoiceMissing:         "Seu navegador não suporta comandos de voz.",
			keyRollLabel:            "Lançar Dado",
			keyRestartLabel:         "Jogar Novamente",
			keyStartLabel:           "Início",
			keyFinishLabel:          "Chegada",
			keyHumanName:            "Foguete Azul",
			keyComputerName:         "OVNI Verde",
			keyConnectionLost:       "Conexão perdida. Reconectando...",
		},
		keywords: []string{"jogar", "lançar", "lancar"},
		rate:     1.1,
	},
	language.AmericanEnglish: {
		messages: map[string]string{
			keyWelcome:              "Welcome to the Cosmic Race! It's your turn.",
			keyRollPrompt:           "Your turn to play...",
			keyRolled + "human":     "You rolled %d!",
			keyRolled + "computer":  "The computer rolled %d!",
			keySquare + "human":     "You are on square %d.",
			keySquare + "computer":  "The computer is on square %d.",
			keyWon + "human":        "You won the cosmic race!",
			keyWon + "computer":     "The computer won the cosmic race!",
			keyComputerTurn:         "Computer's turn...",
			keyYourTurn:             "Your turn. Roll the die!",
			keyListening:            "Listening... say 'roll'!",
			keyNotUnderstood:        "I couldn't understand. Please try again.",
			keyVoiceMissing:         "Your browser does not support voice commands.",
			keyRollLabel:            "Roll Die",
			keyRestartLabel:         "Play Again",
			keyStartLabel:           "Start",
			keyFinishLabel:          "Finish",
			keyHumanName:            "Blue Rocket",
			keyComputerName:         "Green UFO",
			keyConnectionLost:       "Connection lost. Reconnecting...",
		},
		keywords: []string{"roll", "play", "throw"},
		rate:     1.0,
	},
}

var (
	supported = []language.Tag{language.BrazilianPortuguese, language.AmericanEnglish}
	matcher   = language.NewMatcher(supported)
	builder   = mustBuild()
)

func mustBuild() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.BrazilianPortuguese))
	for tag, loc := range locales {
		for key, msg := range loc.messages {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("narration: register %s/%s: %v", tag, key, err))
			}
		}
	}
	return b
}

// Catalog renders narration lines for one locale.
type Catalog struct {
	tag      language.Tag
	printer  *message.Printer
	keywords []string
	rate     float64
}

// New returns the catalog closest to the requested locale. Unparseable
// locales are an error; unsupported ones fall back to BaseLocale.
func New(requested string) (*Catalog, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		requested = BaseLocale
	}
	want, err := language.Parse(requested)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", requested, err)
	}
	_, index, conf := matcher.Match(want)
	tag := supported[index]
	if conf == language.No {
		tag = supported[0]
	}
	loc := locales[tag]
	return &Catalog{
		tag:      tag,
		printer:  message.NewPrinter(tag, message.Catalog(builder)),
		keywords: loc.keywords,
		rate:     loc.rate,
	}, nil
}

// MustNew is New for locales known at compile time.
func MustNew(requested string) *Catalog {
	c, err := New(requested)
	if err != nil {
		panic(err)
	}
	return c
}

// Lang is the BCP 47 tag handed to the speech platform.
func (c *Catalog) Lang() string { return c.tag.String() }

// Rate is the speaking rate handed to the speech platform.
func (c *Catalog) Rate() float64 { return c.rate }

// Keywords lists the affirmative words that trigger a roll by voice.
func (c *Catalog) Keywords() []string { return append([]string(nil), c.keywords...) }

// IsRollCommand reports whether a recognized phrase asks for a roll.
func (c *Catalog) IsRollCommand(transcript string) bool {
	phrase := strings.ToLower(strings.TrimSpace(transcript))
	if phrase == "" {
		return false
	}
	for _, kw := range c.keywords {
		if strings.Contains(phrase, kw) {
			return true
		}
	}
	return false
}

func (c *Catalog) Welcome() string       { return c.printer.Sprintf(keyWelcome) }
func (c *Catalog) RollPrompt() string    { return c.printer.Sprintf(keyRollPrompt) }
func (c *Catalog) ComputerTurn() string  { return c.printer.Sprintf(keyComputerTurn) }
func (c *Catalog) YourTurn() string      { return c.printer.Sprintf(keyYourTurn) }
func (c *Catalog) Listening() string     { return c.printer.Sprintf(keyListening) }
func (c *Catalog) NotUnderstood() string { return c.printer.Sprintf(keyNotUnderstood) }
func (c *Catalog) VoiceMissing() string  { return c.printer.Sprintf(keyVoiceMissing) }
func (c *Catalog) RollLabel() string     { return c.printer.Sprintf(keyRollLabel) }
func (c *Catalog) RestartLabel() string  { return c.printer.Sprintf(keyRestartLabel) }
func (c *Catalog) StartLabel() string    { return c.printer.Sprintf(keyStartLabel) }
func (c *Catalog) FinishLabel() string   { return c.printer.Sprintf(keyFinishLabel) }
func (c *Catalog) ConnectionLost() string {
	return c.printer.Sprintf(keyConnectionLost)
}

// Rolled announces a die result. who is "human" or "computer".
func (c *Catalog) Rolled(who string, n int) string { return c.printer.Sprintf(keyRolled+who, n) }

// OnSquare announces the square a piece landed on.
func (c *Catalog) OnSquare(who string, n int) string { return c.printer.Sprintf(keySquare+who, n) }

// Won announces the winner.
func (c *Catalog) Won(who string) string { return c.printer.Sprintf(keyWon + who) }

// PieceName is the display name of a player's piece.
func (c *Catalog) PieceName(who string) string {
	if who == "computer" {
		return c.printer.Sprintf(keyComputerName)
	}
	return c.printer.Sprintf(keyHumanName)
}
