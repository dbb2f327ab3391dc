package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.trai.ch/bootdrive/internal/adapters/drive"  //nolint:depguard // import needs a writable drive
	"go.trai.ch/bootdrive/internal/adapters/linker" //nolint:depguard // scanner is shared across sessions
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/bootdrive/internal/core/ports"
	"go.trai.ch/bootdrive/internal/engine/executor"
	"go.trai.ch/bootdrive/internal/engine/serializer"
	"go.trai.ch/bootdrive/internal/ui/style"
	"go.trai.ch/zerr"
)

// App represents the main application logic behind the CLI.
type App struct {
	opener    ports.DriveOpener
	loader    ports.ConfigLoader
	logger    ports.Logger
	telemetry ports.Telemetry
	scanner   *linker.Scanner
	getwd     func() (string, error)
}

// New creates a new App instance.
func New(
	opener ports.DriveOpener,
	loader ports.ConfigLoader,
	log ports.Logger,
	telemetry ports.Telemetry,
	scanner *linker.Scanner,
) *App {
	return &App{
		opener:    opener,
		loader:    loader,
		logger:    log,
		telemetry: telemetry,
		scanner:   scanner,
		getwd:     os.Getwd,
	}
}

// WithWorkingDir pins the directory configuration is discovered from.
func (a *App) WithWorkingDir(dir string) *App {
	a.getwd = func() (string, error) { return dir, nil }
	return a
}

// Options merges the configuration file with flags. Flags win; unset values
// fall back to the working directory.
func (a *App) Options(flags domain.Options) (domain.Options, error) {
	cwd, err := a.getwd()
	if err != nil {
		return domain.Options{}, zerr.Wrap(err, "failed to get working directory")
	}

	file, err := a.loader.Load(cwd)
	if err != nil {
		return domain.Options{}, zerr.Wrap(err, "failed to load configuration")
	}

	opts := file.Merge(flags)
	if opts.Cwd == "" {
		opts.Cwd = cwd
	}
	if opts.Drive == "" {
		opts.Drive = cwd
	}
	return opts, nil
}

// session opens the configured drive and starts a Boot session on it.
func (a *App) session(ctx context.Context, flags domain.Options) (*Boot, func() error, error) {
	opts, err := a.Options(flags)
	if err != nil {
		return nil, nil, err
	}

	d, release, err := a.opener.Open(ctx, opts.Drive)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("opened drive", "location", opts.Drive)

	boot, err := NewBoot(d, opts,
		WithLogger(a.logger),
		WithTelemetry(a.telemetry),
		WithProvider(linker.New(d, a.scanner)),
	)
	if err != nil {
		_ = release()
		return nil, nil, err
	}
	return boot, release, nil
}

// Run warms up, executes the entry and prints its export value.
func (a *App) Run(ctx context.Context, entry string, flags domain.Options, out io.Writer) (err error) {
	boot, release, err := a.session(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { err = closeAll(err, release, a.telemetry.Close) }()

	v, err := boot.Start(ctx, entry)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, executor.Inspect(v))
	return err
}

// Bundle writes the standalone bundle of the entry to out.
func (a *App) Bundle(ctx context.Context, entry string, flags domain.Options, out io.Writer) (err error) {
	boot, release, err := a.session(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { err = closeAll(err, release, a.telemetry.Close) }()

	text, err := boot.Stringify(ctx, entry)
	if err != nil {
		return err
	}
	id, _, _ := serializer.Header(text)
	a.logger.Info("bundled", "entry", boot.Entry(), "modules", boot.Graph().Len(), "id", id)

	_, err = io.WriteString(out, text)
	return err
}

// Exec evaluates standalone bundle text without any drive and prints its export value.
func (a *App) Exec(_ context.Context, text string, out io.Writer) error {
	if id, version, ok := serializer.Header(text); ok {
		a.logger.Debug("evaluating bundle", "id", id, "loader", version)
		if version != serializer.LoaderVersion {
			a.logger.Warn("bundle was written for another loader version",
				"bundle", version, "loader", serializer.LoaderVersion)
		}
	}

	v, err := serializer.Evaluate(text)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, executor.Inspect(v))
	return err
}

// Graph warms up the entry and lists every module with its classified imports.
func (a *App) Graph(ctx context.Context, entry string, flags domain.Options, out io.Writer) (err error) {
	boot, release, err := a.session(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { err = closeAll(err, release, a.telemetry.Close) }()

	bundle, err := boot.Bundle(ctx, entry)
	if err != nil {
		return err
	}

	s := style.New(out)
	var sb strings.Builder
	for _, p := range bundle.Paths() {
		m, _ := boot.Graph().Get(p)
		fmt.Fprintf(&sb, "%s %s\n", s.Path.Render(p), s.Muted.Render(m.Kind.String()))
		for _, edge := range m.Edges(boot.Builtins()) {
			fmt.Fprintf(&sb, "  %s %s\n", edgeIcon(s, edge), edgeLabel(boot, m, edge))
		}
	}
	_, err = io.WriteString(out, sb.String())
	return err
}

func edgeIcon(s style.Styles, edge domain.Edge) string {
	switch edge.Kind {
	case domain.EdgeUnresolved:
		return s.Failure.Render(style.Cross)
	case domain.EdgeBuiltin:
		return s.Muted.Render(style.Circle)
	case domain.EdgeAddon:
		return s.Warning.Render(style.Dot)
	default:
		return s.Success.Render(style.Check)
	}
}

func edgeLabel(boot *Boot, m *domain.Module, edge domain.Edge) string {
	switch edge.Kind {
	case domain.EdgeInternal:
		return edge.Input + " -> " + edge.Target
	case domain.EdgeAddon:
		if b, ok := boot.addons.Binding(m.Dirname); ok {
			return edge.Input + " -> " + b.Path + " (" + b.Variant.String() + ")"
		}
		return edge.Input + " (addon)"
	default:
		return edge.Input + " (" + edge.Kind.String() + ")"
	}
}

// Import copies a local folder into the configured drive.
func (a *App) Import(ctx context.Context, src string, flags domain.Options, ignores []string) (count int, err error) {
	opts, err := a.Options(flags)
	if err != nil {
		return 0, err
	}

	d, release, err := a.opener.Open(ctx, opts.Drive)
	if err != nil {
		return 0, err
	}
	defer func() { err = closeAll(err, release) }()

	dst, ok := d.(drive.Writable)
	if !ok {
		return 0, zerr.With(zerr.Wrap(domain.ErrUnsupportedDrive, "drive is read-only"), "location", opts.Drive)
	}

	count, err = drive.Mirror(ctx, src, dst, ignores)
	if err != nil {
		return count, err
	}
	a.logger.Info("imported", "files", count, "drive", opts.Drive)
	return count, nil
}

func closeAll(err error, closers ...func() error) error {
	for _, c := range closers {
		if cerr := c(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
