package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pcastro/parley/internal/account"
	"github.com/pcastro/parley/internal/bus"
	"github.com/pcastro/parley/internal/chat"
	"github.com/pcastro/parley/internal/config"
	"github.com/pcastro/parley/internal/directory"
	"github.com/pcastro/parley/internal/lock"
	"github.com/pcastro/parley/internal/logging"
	"github.com/pcastro/parley/internal/profile"
	"github.com/pcastro/parley/internal/reply"
	"github.com/pcastro/parley/internal/state"
	"github.com/pcastro/parley/internal/store"
)

// env bundles the wired components a command operates on.
type env struct {
	cfg       *config.Config
	logger    *zap.Logger
	lk        *lock.Lock
	persisted *state.Store
	store     store.Store
	session   *chat.Session
	accounts  *account.Service
	dir       *directory.Directory
}

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	e, err := setup(profileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch args[0] {
	case "login":
		if len(args) != 3 {
			fatalUsage("parleyctl login <email> <phone>")
		}
		cmdLogin(ctx, e, args[1], args[2], *jsonFlag)
	case "logout":
		cmdLogout(e)
	case "chats":
		cmdChats(ctx, e, *jsonFlag)
	case "new":
		if len(args) < 2 {
			fatalUsage("parleyctl new <first message>")
		}
		cmdSend(ctx, e, "", args[1], *jsonFlag)
	case "send":
		if len(args) != 3 {
			fatalUsage("parleyctl send <chat-id> <text>")
		}
		cmdSend(ctx, e, args[1], args[2], *jsonFlag)
	case "history":
		if len(args) != 2 {
			fatalUsage("parleyctl history <chat-id>")
		}
		cmdHistory(ctx, e, args[1], *jsonFlag)
	case "delete":
		if len(args) != 2 {
			fatalUsage("parleyctl delete <chat-id>")
		}
		cmdDelete(ctx, e, args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: parleyctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  login <email> <phone>   Log in or register")
	fmt.Fprintln(os.Stderr, "  logout                  Forget the stored login")
	fmt.Fprintln(os.Stderr, "  chats                   List chat threads")
	fmt.Fprintln(os.Stderr, "  new <text>              Start a new chat with a first message")
	fmt.Fprintln(os.Stderr, "  send <chat-id> <text>   Send a message to a thread")
	fmt.Fprintln(os.Stderr, "  history <chat-id>       Print a thread's messages")
	fmt.Fprintln(os.Stderr, "  delete <chat-id>        Delete a thread and its messages")
}

func fatalUsage(usage string) {
	fmt.Fprintln(os.Stderr, "usage: "+usage)
	os.Exit(1)
}

func setup(profileName string) (*env, error) {
	if err := profile.EnsureDir(profileName); err != nil {
		return nil, err
	}
	cfg := config.LoadOrDefault(profile.ConfigPath())

	logger, err := logging.New(profile.LogPath(profileName), profileName, false)
	if err != nil {
		return nil, err
	}

	lk, err := lock.Acquire(profile.Dir(profileName))
	if err != nil {
		return nil, err
	}

	persisted, err := state.Open(profile.StatePath(profileName))
	if err != nil {
		_ = lk.Release()
		return nil, err
	}

	var st store.Store
	switch cfg.Store.Backend {
	case "sqlite":
		st, err = store.OpenSQLite(profile.DBPath(profileName))
	case "firestore":
		st, err = store.OpenFirestore(context.Background(), cfg.Store.Project)
	case "memory":
		st = store.NewMemory()
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		_ = lk.Release()
		return nil, err
	}

	provider, err := reply.New(cfg.Provider)
	if err != nil {
		_ = st.Close()
		_ = lk.Release()
		return nil, err
	}

	b := bus.New()
	dir := directory.New(st, b, logger)
	return &env{
		cfg:       cfg,
		logger:    logger,
		lk:        lk,
		persisted: persisted,
		store:     st,
		session:   chat.NewSession(st, dir, provider, b, logger, persisted.UserID()),
		accounts:  account.NewService(st, logger),
		dir:       dir,
	}, nil
}

func (e *env) close() {
	_ = e.store.Close()
	_ = e.lk.Release()
	_ = e.logger.Sync()
}

// requireLogin exits when no user is stored for the profile.
func (e *env) requireLogin() string {
	uid := e.persisted.UserID()
	if uid == "" {
		fmt.Fprintln(os.Stderr, "error: not logged in; run: parleyctl login <email> <phone>")
		os.Exit(1)
	}
	return uid
}

func cmdLogin(ctx context.Context, e *env, email, phone string, jsonOut bool) {
	res, err := e.accounts.Login(ctx, email, phone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if res.Outcome == account.OutcomeAmbiguous {
		fmt.Fprintln(os.Stderr, "error: already registered with a different email or phone")
		os.Exit(1)
	}
	if err := e.persisted.SetUserID(res.User.ID); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if jsonOut {
		outputJSON(map[string]string{"outcome": res.Outcome.String(), "user_id": res.User.ID})
		return
	}
	fmt.Printf("%s as %s\n", res.Outcome, res.User.Email)
}

func cmdLogout(e *env) {
	if err := e.persisted.ClearUserID(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("logged out")
}

func cmdChats(ctx context.Context, e *env, jsonOut bool) {
	uid := e.requireLogin()
	chats, err := e.dir.List(ctx, uid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if jsonOut {
		outputJSON(chats)
		return
	}
	for _, c := range chats {
		fmt.Printf("%s  %-32s  %s\n", c.ID, c.Heading, time.UnixMilli(c.UpdatedAt).Format(time.RFC3339))
	}
}

func cmdSend(ctx context.Context, e *env, chatID, text string, jsonOut bool) {
	e.session.SetUser(e.requireLogin())
	if chatID != "" {
		if err := e.session.Select(ctx, chatID); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	if err := e.session.Send(ctx, text); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	msgs := e.session.Messages()
	if jsonOut {
		outputJSON(map[string]any{"chat_id": e.session.ThreadID(), "messages": msgs})
		return
	}
	for _, m := range msgs[max(0, len(msgs)-2):] {
		printMessage(m.Sender, m.CreatedAt, m.Text)
	}
}

func cmdHistory(ctx context.Context, e *env, chatID string, jsonOut bool) {
	e.session.SetUser(e.requireLogin())
	if err := e.session.Select(ctx, chatID); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	msgs := e.session.Messages()
	if jsonOut {
		outputJSON(msgs)
		return
	}
	for _, m := range msgs {
		printMessage(m.Sender, m.CreatedAt, m.Text)
	}
}

func cmdDelete(ctx context.Context, e *env, chatID string) {
	uid := e.requireLogin()
	if err := e.dir.Delete(ctx, uid, chatID); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("deleted")
}

func printMessage(sender store.Sender, createdAt int64, text string) {
	fmt.Printf("[%s] %-4s  %s\n", time.UnixMilli(createdAt).Format("2006-01-02 15:04"), sender, text)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
