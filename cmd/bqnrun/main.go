package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	xterm "golang.org/x/term"

	bqnbridge "github.com/wippyai/bqn-bridge"
	"github.com/wippyai/bqn-bridge/cbqn"
	"github.com/wippyai/bqn-bridge/runtime"
)

func main() {
	var (
		expr        = flag.String("e", "", "Term to make and read back (reads stdin lines when empty)")
		optsSrc     = flag.String("opts", "", "Option list passed to make/2 and read/2, e.g. [{timing,true}]")
		timing      = flag.Bool("timing", false, "Shorthand for -opts [{timing,true}]")
		backend     = flag.String("backend", "wasm", "Interpreter backend: wasm or cbqn")
		pages       = flag.Uint("pages", 0, "Memory limit for the wasm backend in 64KB pages (0 = default)")
		verbose     = flag.Bool("v", false, "Log lifecycle events to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *timing && *optsSrc == "" {
		*optsSrc = "[{timing,true}]"
	}

	log := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log = l
		defer log.Sync()
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, *backend, uint32(*pages), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close(ctx)

	sess, err := newSession(rt, *optsSrc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// a terminal on stdin with nothing else to do means interactive
	if *interactive || (*expr == "" && xterm.IsTerminal(int(os.Stdin.Fd()))) {
		if err := runInteractive(sess, *backend); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *expr != "" {
		out := sess.eval(ctx, *expr)
		printOutcome(os.Stdout, out)
		if out.err != nil {
			os.Exit(1)
		}
		return
	}

	if failed := runBatch(ctx, sess, os.Stdin, os.Stdout); failed > 0 {
		os.Exit(1)
	}
}

func newRuntime(ctx context.Context, backend string, pages uint32, log *zap.Logger) (*runtime.Runtime, error) {
	cfg := &runtime.Config{
		Logger:           log,
		MemoryLimitPages: pages,
	}

	switch backend {
	case "wasm":
	case "cbqn":
		interp, err := cbqn.New()
		if err != nil {
			return nil, err
		}
		cfg.Interpreter = bqnbridge.Interpreter(interp)
	default:
		return nil, fmt.Errorf("unknown backend %q (want wasm or cbqn)", backend)
	}

	rt, err := runtime.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	return rt, nil
}

// runBatch evaluates one term per non-empty line and returns the number
// of lines that failed.
func runBatch(ctx context.Context, sess *session, in io.Reader, out io.Writer) int {
	failed := 0
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if isBlank(line) {
			continue
		}
		o := sess.eval(ctx, line)
		printOutcome(out, o)
		if o.err != nil {
			failed++
		}
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		failed++
	}
	return failed
}

func printOutcome(w io.Writer, o outcome) {
	if o.err != nil {
		fmt.Fprintf(w, "%s => error: %v\n", o.input, o.err)
		return
	}
	fmt.Fprintf(w, "make => %s\n", o.made)
	fmt.Fprintf(w, "read => %s\n", o.read)
}
