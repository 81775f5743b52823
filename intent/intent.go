// Package intent turns free-text chat messages into bot commands.
//
// The grammar is deliberately tiny: a message must start with the bot's
// invocation prefix, and the first trigger phrase found in the rest of
// the message decides the command. Everything else is a no-op.
package intent

import "strings"

// Kind identifies a recognized command.
type Kind int

const (
	NoOp Kind = iota
	Help
	AddWord
	RemoveWord
	ListWords
)

func (k Kind) String() string {
	switch k {
	case Help:
		return "help"
	case AddWord:
		return "addWord"
	case RemoveWord:
		return "removeWord"
	case ListWords:
		return "getWords"
	default:
		return "noop"
	}
}

// Command is the result of extracting an intent from a message.
// Word is set only for AddWord and RemoveWord.
type Command struct {
	Kind Kind
	Word string
}

const (
	// DefaultPrefix is the token a message must start with to be
	// treated as a command for the bot.
	DefaultPrefix = "ブルーくん"

	separator = "、"

	triggerHelp   = "使い方教えて"
	triggerAdd    = "を追加して"
	triggerRemove = "を削除して"
	triggerList   = "対象言葉みせて"
)

// Extractor recognizes commands addressed to a single invocation prefix.
type Extractor struct {
	prefix string
}

// NewExtractor constructs an Extractor. An empty prefix falls back to
// DefaultPrefix.
func NewExtractor(prefix string) *Extractor {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Extractor{prefix: prefix}
}

// Extract parses a message body into a Command.
//
// Triggers are checked in a fixed priority order: help, add, remove,
// list. The first one found wins. The word for add/remove is everything
// between the prefix (and its separator) and the first occurrence of
// the trigger. A trigger phrase hiding inside a legitimate word will
// therefore truncate the extraction; that matches how the bot has
// always behaved and users rely on it.
func (e *Extractor) Extract(body string) Command {
	if !strings.HasPrefix(body, e.prefix) {
		return Command{Kind: NoOp}
	}

	text := strings.TrimPrefix(body, e.prefix)
	text = strings.TrimPrefix(text, separator)

	if strings.Contains(text, triggerHelp) {
		return Command{Kind: Help}
	}

	if i := strings.Index(text, triggerAdd); i > -1 {
		return wordCommand(AddWord, text[:i])
	}

	if i := strings.Index(text, triggerRemove); i > -1 {
		return wordCommand(RemoveWord, text[:i])
	}

	if strings.Contains(text, triggerList) {
		return Command{Kind: ListWords}
	}

	return Command{Kind: NoOp}
}

// wordCommand builds an add/remove command, downgrading to NoOp when
// the extracted word is empty after trimming.
func wordCommand(kind Kind, raw string) Command {
	word := strings.TrimSpace(raw)
	if word == "" {
		return Command{Kind: NoOp}
	}
	return Command{Kind: kind, Word: word}
}
