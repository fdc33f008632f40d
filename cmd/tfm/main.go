// Command tfm wires the core packages (pathvfs, filelist, fileops,
// keybind, logmgr, state, ui/filemanager) behind a cobra root command
// per spec §6. The concrete rendering backend is an external
// collaborator (spec §1) injected via NewRendererBackend; when none is
// wired, main performs full core initialization and exits cleanly
// rather than looping against a nonexistent terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shimomut/tfm/archive"
	"github.com/shimomut/tfm/keybind"
	"github.com/shimomut/tfm/logmgr"
	"github.com/shimomut/tfm/pathvfs"
	_ "github.com/shimomut/tfm/pathvfs/localbackend"
	_ "github.com/shimomut/tfm/pathvfs/s3backend"
	_ "github.com/shimomut/tfm/pathvfs/sshbackend"
	"github.com/shimomut/tfm/state"
	"github.com/shimomut/tfm/ui"
	"github.com/shimomut/tfm/ui/filemanager"
)

// NewRendererBackend constructs the concrete rendering backend. The
// core ships no implementation (spec §1); a wrapping distribution sets
// this before calling Execute.
var NewRendererBackend func() (ui.RendererBackend, error)

var flags struct {
	left          string
	right         string
	debug         bool
	remoteLogPort int
	colorTest     string
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tfm",
		Short:        "dual-pane terminal file manager",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), os.Stderr)
		},
	}
	cmd.Flags().StringVar(&flags.left, "left", "", "initial left pane directory")
	cmd.Flags().StringVar(&flags.right, "right", "", "initial right pane directory")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "enable stream-echo log handler")
	cmd.Flags().IntVar(&flags.remoteLogPort, "remote-log-port", 0, "enable the remote log broadcaster on this loopback port")
	cmd.Flags().StringVar(&flags.colorTest, "color-test", "", "run a color diagnostics mode instead of the file manager")
	return cmd
}

func run(ctx context.Context, stderr io.Writer) error {
	if flags.colorTest != "" {
		fmt.Fprintf(stderr, "color-test %s is a diagnostics-only mode; not part of the core\n", flags.colorTest)
		return nil
	}

	log := logmgr.New(logmgr.Info)
	pane := logmgr.NewPaneHandler()
	log.AddHandler(pane)

	if flags.debug {
		log.AddHandler(logmgr.NewStreamHandler(stderr))
		log.SetLevel("main", logmgr.Debug)
	}
	if flags.remoteLogPort > 0 {
		remote, err := logmgr.NewRemoteHandler(flags.remoteLogPort)
		if err != nil {
			return fmt.Errorf("remote log handler: %w", err)
		}
		defer remote.Close()
		log.AddHandler(remote)
	}

	statePath, err := state.DefaultPath()
	if err != nil {
		return fmt.Errorf("resolve state path: %w", err)
	}
	sm, err := state.Load(statePath)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	defer sm.Flush()

	snap := sm.Snapshot()
	leftPath, err := resolvePanePath(flags.left, snap.Panes["left"].Path)
	if err != nil {
		return fmt.Errorf("resolve left pane: %w", err)
	}
	rightPath, err := resolvePanePath(flags.right, snap.Panes["right"].Path)
	if err != nil {
		return fmt.Errorf("resolve right pane: %w", err)
	}

	left := filemanager.NewPaneState(leftPath)
	right := filemanager.NewPaneState(rightPath)
	if err := left.Refresh(ctx); err != nil {
		return fmt.Errorf("list left pane: %w", err)
	}
	if err := right.Refresh(ctx); err != nil {
		return fmt.Errorf("list right pane: %w", err)
	}

	keys := defaultKeybindTable()
	fm := filemanager.New(left, right, keys)
	fm.Log = pane
	fm.State = sm
	fm.Handler = builtinActionHandler

	stack := ui.New(fm)

	if NewRendererBackend == nil {
		log.Infof("main", "no rendering backend wired; core initialized with %d+%d entries", len(left.Entries), len(right.Entries))
		return nil
	}

	backend, err := NewRendererBackend()
	if err != nil {
		return fmt.Errorf("init renderer backend: %w", err)
	}
	defer backend.Close()

	surface := ui.NewFakeSurface(80, 24)
	loop := ui.NewEventLoop(backend, stack, surface)
	return loop.Run()
}

func resolvePanePath(flagValue, savedValue string) (pathvfs.Path, error) {
	if flagValue != "" {
		return pathvfs.Parse(flagValue)
	}
	if savedValue != "" {
		return pathvfs.Parse(savedValue)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return pathvfs.Path{}, err
	}
	return pathvfs.New(pathvfs.SchemeLocal, "", cwd), nil
}

// defaultKeybindTable wires the core's built-in navigation and
// operation keys (spec §6).
func defaultKeybindTable() *keybind.Table {
	t := keybind.New()
	bind := func(action string, pred keybind.Predicate, exprs ...string) {
		_ = t.Bind(action, pred, exprs...)
	}
	bind("open-or-enter", keybind.Any, "Enter")
	bind("parent-dir", keybind.Any, "Backspace")
	bind("toggle-hidden", keybind.Any, "Ctrl-h")
	bind("copy", keybind.Required, "F5")
	bind("move", keybind.Required, "F6")
	bind("mkdir", keybind.Any, "F7")
	bind("delete", keybind.Required, "F8")
	bind("search", keybind.Any, "Ctrl-f")
	bind("jump", keybind.Any, "Ctrl-j")
	bind("batch-rename", keybind.Required, "Ctrl-r")
	bind("create-archive", keybind.Required, "Ctrl-a")
	bind("extract-archive", keybind.Any, "Ctrl-e")
	bind("quit", keybind.Any, "Ctrl-q")
	return t
}

// builtinActionHandler implements the subset of actions that don't
// require wiring to a live dialog stack, deferring anything that needs
// to push a layer to the caller's own handler composed on top of this
// one.
func builtinActionHandler(fm *filemanager.FileManager, action string) bool {
	switch action {
	case "toggle-hidden":
		pane := fm.FocusedPane()
		pane.Config.ShowHidden = !pane.Config.ShowHidden
		_ = pane.Refresh(context.Background())
		return true
	case "create-archive":
		createArchive(fm)
		return true
	case "extract-archive":
		extractArchive(fm)
		return true
	}
	return false
}

// createArchive zips the focused pane's selection (spec §4.7's
// "selected or focused" rule) into a .zip sibling named after the
// first entry, relative to the pane's own directory.
func createArchive(fm *filemanager.FileManager) {
	ctx := context.Background()
	pane := fm.FocusedPane()
	names := pane.SelectedOrFocused()
	if len(names) == 0 {
		return
	}

	sources := make([]pathvfs.Path, len(names))
	for i, name := range names {
		sources[i] = pane.Path.Join(name)
	}
	dest := pane.Path.Join(names[0] + ".zip")
	if err := archive.CreateArchive(ctx, dest, pane.Path, sources); err != nil {
		logArchiveError(fm, "create_archive", err)
		return
	}
	_ = pane.Refresh(ctx)
}

// extractArchive expands the focused entry into a new stem-named
// directory alongside it, when its extension is a registered codec.
func extractArchive(fm *filemanager.FileManager) {
	ctx := context.Background()
	pane := fm.FocusedPane()
	entry, ok := pane.Focused()
	if !ok {
		return
	}
	if _, _, ok := archive.Lookup(entry.Name); !ok {
		return
	}
	src := pane.Path.Join(entry.Name)
	if err := archive.ExtractArchive(ctx, src, pane.Path); err != nil {
		logArchiveError(fm, "extract_archive", err)
		return
	}
	_ = pane.Refresh(ctx)
}

func logArchiveError(fm *filemanager.FileManager, source string, err error) {
	if fm.Log == nil {
		return
	}
	fm.Log.Handle(logmgr.Message{Timestamp: time.Now(), Source: source, Level: logmgr.Error, Text: err.Error()})
}
