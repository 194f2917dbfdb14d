package core

import (
	"fmt"
	"strings"
)

// ClientType identifies a chat platform
type ClientType string

const (
	ClientDiscord ClientType = "discord"
	ClientTwitch  ClientType = "twitch"
)

// Privacy classifies where a message arrived
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
)

// Eminence is the role tier of a message author. Tiers are ordered, so
// access checks are simple >= comparisons.
type Eminence int

const (
	EminenceNone Eminence = iota
	EminenceAficionado
	EminenceConfidant
	EminenceThief
	EminenceJoker
)

var eminenceNames = map[Eminence]string{
	EminenceNone:       "None",
	EminenceAficionado: "Aficionado",
	EminenceConfidant:  "Confidant",
	EminenceThief:      "Thief",
	EminenceJoker:      "Joker",
}

func (e Eminence) String() string {
	if name, ok := eminenceNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Eminence(%d)", int(e))
}

// ParseEminence resolves a configured tier name (case-insensitive).
// Empty input means no tier configured, which is EminenceNone.
func ParseEminence(name string) (Eminence, error) {
	if name == "" {
		return EminenceNone, nil
	}
	for e, n := range eminenceNames {
		if strings.EqualFold(n, name) {
			return e, nil
		}
	}
	return EminenceNone, fmt.Errorf("unknown eminence: %s", name)
}

// ClientList restricts a talent or command to specific client types.
// Nil, empty, or a "*" entry means all clients are allowed. In YAML it
// accepts either a scalar ("discord" or "*") or a sequence.
type ClientList []string

func (l ClientList) Allows(ct ClientType) bool {
	if len(l) == 0 {
		return true
	}
	for _, entry := range l {
		if entry == "*" || entry == string(ct) {
			return true
		}
	}
	return false
}

func (l *ClientList) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*l = ClientList{single}
		return nil
	}
	var list []string
	if err := unmarshal(&list); err != nil {
		return err
	}
	*l = ClientList(list)
	return nil
}

// RawMessage is the platform-neutral view of one inbound message event.
// Each client adapter fills it from its own wire types; AuthorID carries
// whatever identifier the platform authorizes against (Discord user ID,
// Twitch username).
type RawMessage struct {
	ID         string
	Content    string
	AuthorID   string
	AuthorName string
	ChannelID  string
	GuildID    string // empty for DMs and platforms without guilds
	Private    bool
}
