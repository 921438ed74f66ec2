package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/soundleap/soundleap-cli/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var root cli.CLI
	kctx := kong.Parse(&root,
		kong.Name("soundleap"),
		kong.Description("Control SoundLeap sensor mats over Bluetooth LE."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&root)
	stop()
	kctx.FatalIfErrorf(err)
}
