package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/soundleap/soundleap-cli/internal/ble"
	"github.com/soundleap/soundleap-cli/internal/chat"
	"github.com/soundleap/soundleap-cli/internal/commands"
	"github.com/soundleap/soundleap-cli/internal/config"
	"github.com/soundleap/soundleap-cli/internal/protocol"
	"github.com/soundleap/soundleap-cli/internal/store"
	"github.com/soundleap/soundleap-cli/internal/tui"
)

// CLI is the root command structure for soundleap.
type CLI struct {
	Verbose bool   `short:"v" help:"Enable verbose debug output"`
	Config  string `short:"c" type:"path" help:"Config file (default ~/.soundleap/config.yaml)"`

	// Default command - TUI
	Tui TuiCmd `cmd:"" default:"withargs" help:"Launch interactive TUI (default)"`

	Scan   ScanCmd   `cmd:"" help:"Find and connect to a mat, then disconnect"`
	Send   SendCmd   `cmd:"" help:"Send a colour round"`
	Start  StartCmd  `cmd:"" help:"Start a game on the mats"`
	Play   PlayCmd   `cmd:"" help:"Start a game and wait until it ends"`
	Cancel CancelCmd `cmd:"" help:"Cancel the running game"`
	Pad    PadCmd    `cmd:"" help:"Select a pad"`

	Games  GamesCmd  `cmd:"" help:"Game catalog"`
	Ask    AskCmd    `cmd:"" help:"Ask the SoundLeap assistant a question"`
	Chat   ChatCmd   `cmd:"" help:"Interactive assistant session"`
	Preset PresetCmd `cmd:"" help:"Saved colour rounds"`

	DeviceID DeviceIDCmd `cmd:"" name:"device-id" help:"Show or reset this controller's identity"`
	Debug    DebugCmd    `cmd:"" help:"Debug and development tools"`
}

func (c *CLI) env() (*commands.Env, error) {
	config.Verbose = c.Verbose
	return commands.Setup(c.Config)
}

// connect sets up the environment and dials the mat showing code.
func (c *CLI) connect(ctx context.Context, code string) (*commands.Env, *commands.Session, error) {
	env, err := c.env()
	if err != nil {
		return nil, nil, err
	}
	sess, err := commands.Dial(ctx, env, code)
	if err != nil {
		env.Close()
		if errors.Is(err, ble.ErrAdapterUnavailable) {
			return nil, nil, fmt.Errorf("%w (is bluetooth on?)", err)
		}
		return nil, nil, err
	}
	return env, sess, nil
}

// --- TUI Command ---

type TuiCmd struct {
	Code string `arg:"" optional:"" help:"Mat code to connect to on start"`
}

func (c *TuiCmd) Run(globals *CLI) error {
	env, err := globals.env()
	if err != nil {
		return err
	}
	defer env.Close()
	return tui.Run(env, c.Code)
}

// --- Mat Commands ---

// CodeFlag is the mat code shared by commands that connect.
type CodeFlag struct {
	Code string `short:"k" required:"" env:"SOUNDLEAP_CODE" help:"Code shown on the mat hub (4-6 characters)"`
}

type ScanCmd struct {
	Code string `arg:"" help:"Code shown on the mat hub"`
}

func (c *ScanCmd) Run(globals *CLI, ctx context.Context) error {
	env, sess, err := globals.connect(ctx, c.Code)
	if err != nil {
		return err
	}
	defer env.Close()
	defer sess.Close()

	conn, _ := sess.Session()
	fmt.Printf("  Session: %s\n", conn.ID)
	fmt.Printf("  RSSI:    %d dBm\n", conn.Peer.RSSI)
	fmt.Printf("  Device:  %s\n", sess.DeviceID())
	return nil
}

type SendCmd struct {
	CodeFlag
	Colors string `arg:"" help:"Colours, e.g. red,green,blue (or hex bytes with --hex)"`
	Hex    bool   `help:"Treat the payload as hex bytes"`
}

func (c *SendCmd) Run(globals *CLI, ctx context.Context) error {
	payload, err := commands.ParsePayload(c.Colors, c.Hex)
	if err != nil {
		return err
	}

	env, sess, err := globals.connect(ctx, c.Code)
	if err != nil {
		return err
	}
	defer env.Close()
	defer sess.Close()

	if err := sess.Send(ctx, payload, env.Config.BLE.LineEnding); err != nil {
		return fmt.Errorf("failed to send: %w", err)
	}
	fmt.Printf("Sent %d bytes\n", len(payload))
	return nil
}

type StartCmd struct {
	CodeFlag
	Game string   `arg:"" help:"Game UID"`
	Set  []string `short:"s" help:"Preference override name=value (repeatable)"`
}

func (c *StartCmd) Run(globals *CLI, ctx context.Context) error {
	env, err := globals.env()
	if err != nil {
		return err
	}
	defer env.Close()

	sess, err := startGame(ctx, env, c.Code, c.Game, c.Set)
	if err != nil {
		return err
	}
	return sess.Close()
}

// startGame runs the start sequence and returns the open session for
// callers that keep listening.
func startGame(ctx context.Context, env *commands.Env, code, uid string, overrides []string) (*commands.Session, error) {
	fmt.Printf("Fetching game %s...\n", uid)
	cache, err := env.ProgramCache()
	if err != nil {
		env.Logger.Warn("program cache unavailable", "error", err)
	}
	game, settings, program, err := commands.PrepareGame(ctx, env.Catalog(), cache, env.Logger, uid, overrides)
	if err != nil {
		return nil, err
	}

	sess, err := commands.Dial(ctx, env, code)
	if err != nil {
		return nil, err
	}

	fmt.Printf("Starting %s (%d preferences, %d bytes of program)...\n", game.Name, len(settings), len(program))
	if err := commands.StartGame(ctx, sess, env.Config.BLE, game, settings, program); err != nil {
		sess.Close()
		return nil, err
	}
	fmt.Println("Game started")
	return sess, nil
}

type PlayCmd struct {
	CodeFlag
	Game string   `arg:"" help:"Game UID"`
	Set  []string `short:"s" help:"Preference override name=value (repeatable)"`
}

func (c *PlayCmd) Run(globals *CLI, ctx context.Context) error {
	env, err := globals.env()
	if err != nil {
		return err
	}
	defer env.Close()

	sess, err := startGame(ctx, env, c.Code, c.Game, c.Set)
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Println("Waiting for the game to end (Ctrl-C to leave)...")
	st, err := commands.WaitForStatus(ctx, sess.Manager, func(st protocol.Status) bool {
		if !st.Ended {
			fmt.Printf("  %s\n", st)
		}
		return st.Ended
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	fmt.Println(st)
	return nil
}

type CancelCmd struct {
	CodeFlag
}

func (c *CancelCmd) Run(globals *CLI, ctx context.Context) error {
	env, sess, err := globals.connect(ctx, c.Code)
	if err != nil {
		return err
	}
	defer env.Close()
	defer sess.Close()

	if err := commands.SendCommand(ctx, sess, env.Config.BLE, protocol.CancelGame); err != nil {
		return err
	}
	fmt.Println("Game cancelled")
	return nil
}

type PadCmd struct {
	CodeFlag
	Pad int `arg:"" help:"Pad number (1-3)"`
}

func (c *PadCmd) Run(globals *CLI, ctx context.Context) error {
	b, err := commands.PadByte(c.Pad)
	if err != nil {
		return err
	}

	env, sess, err := globals.connect(ctx, c.Code)
	if err != nil {
		return err
	}
	defer env.Close()
	defer sess.Close()

	if err := commands.SendCommand(ctx, sess, env.Config.BLE, b); err != nil {
		return err
	}
	fmt.Printf("Pad %d selected\n", c.Pad)
	return nil
}

// --- Games Commands ---

type GamesCmd struct {
	List  GamesListCmd  `cmd:"" default:"1" help:"List available games"`
	Show  GamesShowCmd  `cmd:"" help:"Show a game and its preferences"`
	Cache GamesCacheCmd `cmd:"" help:"Manage downloaded game programs"`
}

type GamesCacheCmd struct {
	List  GamesCacheListCmd  `cmd:"" default:"1" help:"List cached programs"`
	Clear GamesCacheClearCmd `cmd:"" help:"Remove all cached programs"`
}

type GamesCacheListCmd struct{}

func (c *GamesCacheListCmd) Run(globals *CLI) error {
	env, err := globals.env()
	if err != nil {
		return err
	}
	defer env.Close()

	cache, err := env.ProgramCache()
	if err != nil {
		return err
	}
	return commands.ListCachedPrograms(os.Stdout, cache)
}

type GamesCacheClearCmd struct {
	Yes bool `short:"y" help:"Skip confirmation"`
}

func (c *GamesCacheClearCmd) Run(globals *CLI) error {
	env, err := globals.env()
	if err != nil {
		return err
	}
	defer env.Close()

	cache, err := env.ProgramCache()
	if err != nil {
		return err
	}
	if !c.Yes && !commands.ConfirmAction("Remove all cached game programs? Type 'yes' to continue: ") {
		fmt.Println("Aborted")
		return nil
	}
	if err := cache.Clear(); err != nil {
		return err
	}
	fmt.Println("Cache cleared")
	return nil
}

type GamesListCmd struct{}

func (c *GamesListCmd) Run(globals *CLI, ctx context.Context) error {
	env, err := globals.env()
	if err != nil {
		return err
	}
	defer env.Close()
	return commands.ListGames(ctx, os.Stdout, env.Catalog())
}

type GamesShowCmd struct {
	UID  string `arg:"" help:"Game UID"`
	JSON bool   `help:"Print raw JSON"`
}

func (c *GamesShowCmd) Run(globals *CLI, ctx context.Context) error {
	env, err := globals.env()
	if err != nil {
		return err
	}
	defer env.Close()

	if c.JSON {
		g, err := env.Catalog().GetGame(ctx, c.UID)
		if err != nil {
			return err
		}
		return commands.PrintJSON(os.Stdout, g)
	}
	return commands.ShowGame(ctx, os.Stdout, env.Catalog(), c.UID)
}

// --- Assistant Commands ---

type AskCmd struct {
	Question []string `arg:"" help:"Question text"`
}

func (c *AskCmd) Run(globals *CLI, ctx context.Context) error {
	env, err := globals.env()
	if err != nil {
		return err
	}
	defer env.Close()
	return commands.Ask(ctx, os.Stdout, env.Assistant(), chat.NewRenderer(0), strings.Join(c.Question, " "))
}

type ChatCmd struct{}

func (c *ChatCmd) Run(globals *CLI, ctx context.Context) error {
	env, err := globals.env()
	if err != nil {
		return err
	}
	defer env.Close()
	return commands.Chat(ctx, env.Assistant(), chat.NewRenderer(0))
}

// --- Preset Commands ---

type PresetCmd struct {
	Save   PresetSaveCmd   `cmd:"" help:"Save a colour round"`
	List   PresetListCmd   `cmd:"" default:"1" help:"List saved rounds"`
	Show   PresetShowCmd   `cmd:"" help:"Show preset metadata"`
	Send   PresetSendCmd   `cmd:"" help:"Send a saved round to the mats"`
	Delete PresetDeleteCmd `cmd:"" help:"Delete a preset"`
	Export PresetExportCmd `cmd:"" help:"Write a preset payload to a file"`
}

func openStore(globals *CLI) (*commands.Env, *store.Store, error) {
	env, err := globals.env()
	if err != nil {
		return nil, nil, err
	}
	s, err := env.Store()
	if err != nil {
		env.Close()
		return nil, nil, err
	}
	return env, s, nil
}

type PresetSaveCmd struct {
	Colors string `arg:"" help:"Colours, e.g. red,green,blue"`
	Name   string `short:"n" help:"Preset name"`
}

func (c *PresetSaveCmd) Run(globals *CLI) error {
	payload, err := commands.ParsePayload(c.Colors, false)
	if err != nil {
		return err
	}
	env, s, err := openStore(globals)
	if err != nil {
		return err
	}
	defer env.Close()

	var seq protocol.ColorSequence
	for _, b := range payload {
		seq.Add(protocol.ColorName(b))
	}
	_, err = commands.SavePreset(os.Stdout, s, seq, c.Name, "save")
	return err
}

type PresetListCmd struct{}

func (c *PresetListCmd) Run(globals *CLI) error {
	env, s, err := openStore(globals)
	if err != nil {
		return err
	}
	defer env.Close()
	return commands.ListPresets(os.Stdout, s)
}

type PresetShowCmd struct {
	Ref string `arg:"" help:"Preset name or hash (full or short)"`
}

func (c *PresetShowCmd) Run(globals *CLI) error {
	env, s, err := openStore(globals)
	if err != nil {
		return err
	}
	defer env.Close()

	_, meta, err := commands.LoadPreset(s, c.Ref)
	if err != nil {
		return err
	}
	return commands.PrintJSON(os.Stdout, meta)
}

type PresetSendCmd struct {
	CodeFlag
	Ref string `arg:"" help:"Preset name or hash"`
}

func (c *PresetSendCmd) Run(globals *CLI, ctx context.Context) error {
	env, s, err := openStore(globals)
	if err != nil {
		return err
	}
	defer env.Close()

	seq, meta, err := commands.LoadPreset(s, c.Ref)
	if err != nil {
		return err
	}

	sess, err := commands.Dial(ctx, env, c.Code)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := commands.SendColors(ctx, sess, env.Config.BLE, seq); err != nil {
		return err
	}
	fmt.Printf("Sent %s (%s)\n", store.ShortHash(meta.ContentHash), strings.Join(meta.Colors, ","))
	return nil
}

type PresetDeleteCmd struct {
	Ref string `arg:"" help:"Preset name or hash"`
	Yes bool   `short:"y" help:"Do not ask for confirmation"`
}

func (c *PresetDeleteCmd) Run(globals *CLI) error {
	env, s, err := openStore(globals)
	if err != nil {
		return err
	}
	defer env.Close()

	hash, err := s.Resolve(c.Ref)
	if err != nil {
		return err
	}
	if !c.Yes && !commands.ConfirmAction(fmt.Sprintf("Delete preset %s? Type 'yes' to continue: ", store.ShortHash(hash))) {
		fmt.Println("Aborted")
		return nil
	}
	if err := s.Delete(hash); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", store.ShortHash(hash))
	return nil
}

type PresetExportCmd struct {
	Ref    string `arg:"" help:"Preset name or hash"`
	Output string `arg:"" type:"path" help:"Output file path"`
}

func (c *PresetExportCmd) Run(globals *CLI) error {
	env, s, err := openStore(globals)
	if err != nil {
		return err
	}
	defer env.Close()

	hash, err := s.Resolve(c.Ref)
	if err != nil {
		return err
	}
	if err := s.Export(hash, c.Output); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	fmt.Printf("Exported %s to %s\n", store.ShortHash(hash), c.Output)
	return nil
}

// --- Identity ---

type DeviceIDCmd struct {
	Reset bool `help:"Generate a new identity"`
}

func (c *DeviceIDCmd) Run(globals *CLI) error {
	env, err := globals.env()
	if err != nil {
		return err
	}
	defer env.Close()

	if c.Reset {
		if !commands.ConfirmAction("Mats will see this controller as a new device. Type 'yes' to continue: ") {
			fmt.Println("Aborted")
			return nil
		}
		id, err := store.ResetDeviceID(env.Config.Store.Dir)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	}

	id, err := env.DeviceID()
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

// --- Debug Commands ---

type DebugCmd struct {
	Encode DebugEncodeCmd `cmd:"" help:"Show the frame for a payload without connecting"`
	Status DebugStatusCmd `cmd:"" help:"Decode a status notification"`
}

type DebugEncodeCmd struct {
	Payload      string `arg:"" help:"Colours or hex bytes"`
	Hex          bool   `help:"Treat the payload as hex bytes"`
	NoLineEnding bool   `help:"Omit the LF CR terminator"`
	ID           string `help:"Device id to use instead of the stored one"`
}

func (c *DebugEncodeCmd) Run(globals *CLI) error {
	payload, err := commands.ParsePayload(c.Payload, c.Hex)
	if err != nil {
		return err
	}

	id := protocol.NewDeviceID(c.ID)
	if c.ID == "" {
		env, err := globals.env()
		if err != nil {
			return err
		}
		defer env.Close()
		if id, err = env.DeviceID(); err != nil {
			return err
		}
	}

	commands.EncodeFrame(os.Stdout, id, payload, !c.NoLineEnding)
	return nil
}

type DebugStatusCmd struct {
	Value string `arg:"" help:"Notification text, e.g. 238"`
	Hex   bool   `help:"Treat the value as hex bytes"`
}

func (c *DebugStatusCmd) Run(globals *CLI) error {
	config.Verbose = globals.Verbose

	raw := []byte(c.Value)
	if c.Hex {
		b, err := commands.ParsePayload(c.Value, true)
		if err != nil {
			return err
		}
		raw = b
	}
	if err := commands.DecodeStatus(os.Stdout, raw); err != nil {
		return fmt.Errorf("%w (raw %s)", err, strconv.Quote(string(raw)))
	}
	return nil
}
