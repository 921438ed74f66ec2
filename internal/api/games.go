package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// GameSummary is one entry of the game list.
type GameSummary struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// Game is a full game record including its configurable preferences.
type Game struct {
	GameSummary
	Preferences []Preference `json:"preferences"`
}

// Preference looks up a preference by name.
func (g *Game) Preference(name string) (Preference, bool) {
	for _, p := range g.Preferences {
		if p.Name == name {
			return p, true
		}
	}
	return Preference{}, false
}

// ListGames returns all games without their preferences.
func (c *Client) ListGames(ctx context.Context) ([]GameSummary, error) {
	data, err := c.get(ctx, indexPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	var games []GameSummary
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("failed to parse game list: %w", err)
	}
	return games, nil
}

// GetGame fetches one game with preferences. The service answers with a
// zero- or one-element array.
func (c *Client) GetGame(ctx context.Context, uid string) (*Game, error) {
	data, err := c.get(ctx, indexPath, url.Values{"uid": {uid}})
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", uid, err)
	}

	var games []Game
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("failed to parse game %s: %w", uid, err)
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("get game %s: %w", uid, ErrGameNotFound)
	}

	g := games[0]
	for _, p := range g.Preferences {
		if err := p.check(); err != nil {
			return nil, fmt.Errorf("game %s: %w", uid, err)
		}
	}
	return &g, nil
}

// GetGameCode fetches the raw program text for a game.
func (c *Client) GetGameCode(ctx context.Context, uid string) ([]byte, error) {
	data, err := c.get(ctx, gameCodePath, url.Values{"uid": {uid}})
	if err != nil {
		return nil, fmt.Errorf("get game code %s: %w", uid, err)
	}
	return data, nil
}

// gameCodeTerminator marks the end of an uploaded program.
var gameCodeTerminator = []byte("EOF")

// PrepareGameCode strips newlines and tabs and appends the EOF marker
// the mat expects after the last chunk.
func PrepareGameCode(code []byte) []byte {
	out := make([]byte, 0, len(code)+len(gameCodeTerminator))
	for _, b := range code {
		if b == '\n' || b == '\t' {
			continue
		}
		out = append(out, b)
	}
	return append(out, gameCodeTerminator...)
}

// EncodeSettings builds the settings line sent after the start byte:
// name=<game>;uid=<uid>;<pref>=<value>;...\n
func EncodeSettings(g *Game, settings []Setting) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "name=%s;", g.Name)
	fmt.Fprintf(&buf, "uid=%s;", g.UID)
	for _, s := range settings {
		fmt.Fprintf(&buf, "%s=%s;", s.Name, s.Value)
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}
