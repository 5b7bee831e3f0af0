package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/pcastro/parley/internal/account"
	"github.com/pcastro/parley/internal/app"
	"github.com/pcastro/parley/internal/bus"
	"github.com/pcastro/parley/internal/chat"
	"github.com/pcastro/parley/internal/directory"
	"github.com/pcastro/parley/internal/profile"
	"github.com/pcastro/parley/internal/state"
	"github.com/pcastro/parley/internal/tui"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var ui *tui.App
	fxApp := fx.New(
		app.Module(app.Params{ProfileName: profileName, Console: false}),
		fx.Provide(provideTUI),
		fx.Populate(&ui),
		fx.NopLogger,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	runErr := ui.Run()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStop()
	_ = fxApp.Stop(stopCtx)

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

func provideTUI(p app.Params, session *chat.Session, accounts *account.Service, dir *directory.Directory, persisted *state.Store, b *bus.Bus, logger *zap.Logger) *tui.App {
	return tui.NewApp(session, accounts, dir, persisted, b, logger, p.ProfileName)
}
