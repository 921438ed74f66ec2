package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/soundleap/soundleap-cli/internal/api"
)

// ListGames prints the catalog.
func ListGames(ctx context.Context, w io.Writer, catalog *api.Client) error {
	games, err := catalog.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list games: %w", err)
	}
	if len(games) == 0 {
		fmt.Fprintln(w, "No games available")
		return nil
	}

	fmt.Fprintf(w, "%-14s %-24s %-8s %s\n", "UID", "NAME", "VERSION", "DESCRIPTION")
	for _, g := range games {
		fmt.Fprintf(w, "%-14s %-24s %-8s %s\n", g.UID, g.Name, g.Version, firstLine(g.Description))
	}
	return nil
}

// ShowGame prints one game and its preferences with defaults.
func ShowGame(ctx context.Context, w io.Writer, catalog *api.Client, uid string) error {
	g, err := catalog.GetGame(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to get game %s: %w", uid, err)
	}
	PrintGame(w, g)
	return nil
}

// PrintGame writes a human readable game description.
func PrintGame(w io.Writer, g *api.Game) {
	fmt.Fprintf(w, "%s (%s)\n", g.Name, g.UID)
	if g.Version != "" {
		fmt.Fprintf(w, "  Version: %s\n", g.Version)
	}
	if g.Description != "" {
		fmt.Fprintf(w, "  %s\n", g.Description)
	}
	if len(g.Preferences) == 0 {
		return
	}

	fmt.Fprintln(w, "\nPreferences:")
	for _, p := range g.Preferences {
		def, err := p.Default()
		if err != nil {
			def = "?"
		}
		fmt.Fprintf(w, "  %-20s %-6s default=%s%s\n", p.Name, p.Type, def, constraint(p))
	}
}

func constraint(p api.Preference) string {
	switch p.Type {
	case api.PreferenceNumber:
		if p.MinValue != nil && p.MaxValue != nil {
			return fmt.Sprintf(" [%d..%d]", *p.MinValue, *p.MaxValue)
		}
	case api.PreferenceList:
		return " [" + strings.Join(p.List, "|") + "]"
	case api.PreferenceText:
		if p.MaxLength != nil {
			return fmt.Sprintf(" [max %d chars]", *p.MaxLength)
		}
	}
	return ""
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	if len(s) > 60 {
		return s[:57] + "..."
	}
	return s
}

// PrepareGame fetches a game, resolves its settings from overrides
// and downloads its program, falling back to cache when the download fails.
func PrepareGame(ctx context.Context, catalog *api.Client, cache *api.ProgramCache, log *slog.Logger, uid string, overrides []string) (*api.Game, []api.Setting, []byte, error) {
	values, err := api.ParseOverrides(overrides)
	if err != nil {
		return nil, nil, nil, err
	}
	g, err := catalog.GetGame(ctx, uid)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get game %s: %w", uid, err)
	}
	settings, err := g.Settings(values)
	if err != nil {
		return nil, nil, nil, err
	}
	code, err := FetchProgram(ctx, catalog, cache, log, g)
	if err != nil {
		return nil, nil, nil, err
	}
	return g, settings, code, nil
}

// FetchProgram downloads a game's program and stores it in cache. When
// the download fails a cached copy of the same version is used, then
// any cached version. cache may be nil.
func FetchProgram(ctx context.Context, catalog *api.Client, cache *api.ProgramCache, log *slog.Logger, g *api.Game) ([]byte, error) {
	code, err := catalog.GetGameCode(ctx, g.UID)
	if err == nil {
		if cache != nil {
			if perr := cache.Put(g.UID, g.Version, code); perr != nil {
				log.Warn("failed to cache game program", "uid", g.UID, "error", perr)
			}
		}
		return code, nil
	}
	if cache != nil {
		if cached, ok := cache.Get(g.UID, g.Version); ok {
			log.Warn("using cached game program", "uid", g.UID, "version", g.Version, "error", err)
			return cached, nil
		}
		if cached, ok := cache.Latest(g.UID); ok {
			log.Warn("using cached game program from another version", "uid", g.UID, "error", err)
			return cached, nil
		}
	}
	return nil, fmt.Errorf("failed to get game code: %w", err)
}

// ListCachedPrograms prints the downloaded game programs.
func ListCachedPrograms(w io.Writer, cache *api.ProgramCache) error {
	entries, err := cache.List()
	if err != nil {
		return fmt.Errorf("failed to list cache: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "No cached programs in %s\n", cache.Path())
		return nil
	}

	fmt.Fprintf(w, "%-20s %-10s %8s  %s\n", "UID", "VERSION", "SIZE", "DOWNLOADED")
	for _, e := range entries {
		fmt.Fprintf(w, "%-20s %-10s %8d  %s\n",
			e.UID, e.Version, e.FileSize,
			e.Downloaded.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
