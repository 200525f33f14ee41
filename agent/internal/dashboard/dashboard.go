package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/netpulse/netpulse/internal/cycle"
	"github.com/netpulse/netpulse/pkg/types"
)

const (
	clearScreen = "\033[H\033[2J"
	ctrlC       = 0x03
)

// Loader produces the snapshot shown on each refresh.
type Loader interface {
	Averages(ctx context.Context) (*cycle.Snapshot, error)
}

// Options configures a Dashboard.
type Options struct {
	RefreshInterval time.Duration
	QuitKey         byte
	WindowDays      int
	In              io.Reader // key presses; raw mode is used when it is a terminal
	Out             io.Writer
}

// Dashboard is a terminal view over a Loader.
type Dashboard struct {
	mu     sync.Mutex
	loader Loader
	opts   Options
}

// New returns a Dashboard reading from loader.
func New(loader Loader, opts Options) *Dashboard {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 250 * time.Millisecond
	}
	if opts.QuitKey == 0 {
		opts.QuitKey = 'q'
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 3
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Dashboard{loader: loader, opts: opts}
}

// SetLoader swaps the loader used from the next refresh on.
func (d *Dashboard) SetLoader(l Loader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loader = l
}

// Run draws the dashboard until the quit key is pressed or ctx is done.
func (d *Dashboard) Run(ctx context.Context) error {
	out := d.opts.Out
	if f, ok := d.opts.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("dashboard: enter raw mode: %w", err)
		}
		defer term.Restore(int(f.Fd()), state) //nolint:errcheck
		// Raw mode disables output post-processing, so \n no longer returns the carriage.
		out = crlfWriter{out}
	}

	quit := make(chan struct{})
	if d.opts.In != nil {
		go d.readKeys(quit)
	}

	ticker := time.NewTicker(d.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		d.refresh(ctx, out)
		select {
		case <-ctx.Done():
			return nil
		case <-quit:
			return nil
		case <-ticker.C:
		}
	}
}

// readKeys closes quit on the quit key or Ctrl-C. EOF leaves the dashboard running.
func (d *Dashboard) readKeys(quit chan<- struct{}) {
	buf := make([]byte, 1)
	for {
		n, err := d.opts.In.Read(buf)
		if n == 1 && (buf[0] == d.opts.QuitKey || buf[0] == ctrlC) {
			close(quit)
			return
		}
		if err != nil {
			return
		}
	}
}

func (d *Dashboard) refresh(ctx context.Context, out io.Writer) {
	d.mu.Lock()
	loader := d.loader
	d.mu.Unlock()

	snap, err := loader.Averages(ctx)
	if err != nil {
		slog.Warn("dashboard: load failed", "err", err)
	}

	var buf bytes.Buffer
	buf.WriteString(clearScreen)
	Render(&buf, snap, err, d.opts.WindowDays)
	buf.WriteString(fmt.Sprintf("\nPress '%c' to quit.\n", d.opts.QuitKey))
	out.Write(buf.Bytes()) //nolint:errcheck
}

// Render writes one frame: the averages table and the health tier, or the
// load error when snap is nil.
func Render(w io.Writer, snap *cycle.Snapshot, loadErr error, windowDays int) {
	fmt.Fprintf(w, "Network Averages (Last %d Days)\n", windowDays)

	if snap == nil {
		msg := "no data"
		if loadErr != nil {
			msg = loadErr.Error()
		}
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("Error loading data:"), msg)
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Average"})
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, m := range types.Metrics {
		table.Append([]string{m.Label(), FormatValue(snap.Health.Averages.Value(m))})
	}
	table.Render()

	fmt.Fprintf(w, "Health: %s\n", tierColor(snap.Health.Tier).Sprint(snap.Health.Tier.String()))
	fmt.Fprintf(w, "Records: %d  Updated: %s\n", snap.RecordCount, snap.Timestamp.Format("15:04:05"))
}

// FormatValue renders an average with two decimals, or N/A when missing.
func FormatValue(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func tierColor(t types.HealthTier) *color.Color {
	switch t {
	case types.TierCritical:
		return color.New(color.FgRed, color.Bold)
	case types.TierPoor:
		return color.New(color.FgRed)
	case types.TierFair:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

type crlfWriter struct{ w io.Writer }

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
