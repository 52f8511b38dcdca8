package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/securechat/msgr/internal/app"
	"github.com/securechat/msgr/internal/profile"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	serverFlag := flag.String("server", "", "server base URL (overrides config)")
	flag.Parse()

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// fx's own log lines would scribble over the TUI.
	fx.New(
		app.Module(app.Params{Profile: name, ServerOverride: *serverFlag}),
		fx.NopLogger,
	).Run()
}
