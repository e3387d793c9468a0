// Package main implements the rbscript CLI: a BASIC-family toolchain that
// can interpret source directly, transpile it to Go, or run the transpiled
// result through the native Go compiler.
package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	gosourcemap "github.com/go-sourcemap/sourcemap"
	"github.com/spf13/cobra"
	"golang.org/x/tools/imports"

	"github.com/rbscript-lang/rbscript/pkg/config"
	rberrors "github.com/rbscript-lang/rbscript/pkg/errors"
	"github.com/rbscript-lang/rbscript/pkg/ffi"
	rbimports "github.com/rbscript-lang/rbscript/pkg/imports"
	"github.com/rbscript-lang/rbscript/pkg/interp"
	"github.com/rbscript-lang/rbscript/pkg/iosink"
	"github.com/rbscript-lang/rbscript/pkg/lexer"
	"github.com/rbscript-lang/rbscript/pkg/parser"
	"github.com/rbscript-lang/rbscript/pkg/repl"
	"github.com/rbscript-lang/rbscript/pkg/transpiler"
	"github.com/rbscript-lang/rbscript/pkg/ui"
)

var version = "0.1.0-alpha"

func main() {
	rootCmd := &cobra.Command{
		Use:          "rbscript",
		Short:        "rbscript - a BASIC toolchain for Go",
		Long:         `rbscript interprets, transpiles, and runs a small BASIC-family language, targeting Go source as its compilation output.`,
		Version:      version,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintRBScriptHelp(version)
		},
	}

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		ui.PrintRBScriptHelp(version)
	})
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintRBScriptHelp(version)
		},
	})

	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(interpretCmd())
	rootCmd.AddCommand(replCmd())
	rootCmd.AddCommand(sourcemapCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildCmd() *cobra.Command {
	var output string
	var watch bool

	cmd := &cobra.Command{
		Use:   "build [file.rb]",
		Short: "Transpile rbscript source to Go",
		Long: `Build transpiles an rbscript source file (.rb) to a Go source file (.go).

The transpiler:
1. Resolves import directives
2. Parses the resolved source into an AST
3. Emits idiomatic Go source backed by runtime/rbrt, plus a source map

Example:
  rbscript build hello.rb
  rbscript build -o out.go main.rb
  rbscript build --watch main.rb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return watchBuild(args[0], output)
			}
			return runBuild(args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: replace .rb with .go)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rebuild whenever the source file changes")
	return cmd
}

func sourcemapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sourcemap [file.go.map] [line] [column]",
		Short: "Resolve a generated Go position back to its rbscript source position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid line %q: %w", args[1], err)
			}
			col, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid column %q: %w", args[2], err)
			}
			return lookupSourcemap(args[0], line, col)
		},
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file.rb]",
		Short: "Transpile and run an rbscript program via the Go toolchain",
		Long: `Run transpiles an rbscript source file and executes the result with
"go run". Equivalent to:

  rbscript build file.rb
  go run file.go`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGoFile(args[0])
		},
	}
	return cmd
}

func interpretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interpret [file.rb]",
		Short: "Run an rbscript program directly with the tree-walking interpreter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterpreted(args[0])
		},
	}
	return cmd
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive rbscript shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			return repl.Run(os.Stdin, os.Stdout)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rbscript",
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintVersionInfo(version)
		},
	}
}

func runBuild(inputPath, outputPath string) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}

	buildUI := ui.NewBuildOutput()
	buildUI.PrintHeader(version)
	buildUI.PrintBuildStart(1)

	if err := buildFile(inputPath, outputPath, buildUI, cfg); err != nil {
		buildUI.PrintError(err.Error())
		buildUI.PrintSummary(false, err.Error())
		return err
	}

	buildUI.PrintSummary(true, "")
	return nil
}

// watchBuild rebuilds inputPath once immediately, then again every time the
// file is written to, until interrupted.
func watchBuild(inputPath, outputPath string) error {
	if err := runBuild(inputPath, outputPath); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(inputPath); err != nil {
		return fmt.Errorf("failed to watch %s: %w", inputPath, err)
	}

	fmt.Printf("watching %s for changes (ctrl-c to stop)\n", inputPath)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fmt.Println()
			if err := runBuild(inputPath, outputPath); err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "watch error:", err)
		}
	}
}

// lookupSourcemap reads a Source Map v3 document and prints the original
// rbscript position a generated (line, column) pair maps to.
func lookupSourcemap(mapPath string, line, col int) error {
	data, err := os.ReadFile(mapPath)
	if err != nil {
		return err
	}

	consumer, err := gosourcemap.Parse(mapPath, data)
	if err != nil {
		return fmt.Errorf("failed to parse source map: %w", err)
	}

	file, _, srcLine, srcCol, ok := consumer.Source(line-1, col-1)
	if !ok {
		return fmt.Errorf("no mapping found for %s:%d:%d", mapPath, line, col)
	}

	ui.PrintSourceMapResult(mapPath, line, col, file, srcLine+1, srcCol+1)
	return nil
}

// writeSourceMap persists the transpiler's source map according to the
// configured format. Mapped positions describe the emitter's raw output;
// goimports reformatting afterward can shift lines slightly, so the map is
// an approximate debugging aid rather than an exact one once that runs.
func writeSourceMap(outputPath string, result *transpiler.Result, cfg *config.Config) error {
	if !cfg.SourceMap.Enabled {
		return nil
	}
	mapJSON, err := json.MarshalIndent(result.SourceMap, "", "  ")
	if err != nil {
		return err
	}

	switch cfg.SourceMap.Format {
	case config.FormatSeparate:
		return os.WriteFile(outputPath+".map", mapJSON, 0644)
	case config.FormatInline:
		comment := fmt.Sprintf("\n//# sourceMappingURL=data:application/json;base64,%s\n",
			base64.StdEncoding.EncodeToString(mapJSON))
		f, err := os.OpenFile(outputPath, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = f.WriteString(comment)
		return err
	default:
		return nil
	}
}

func buildFile(inputPath, outputPath string, buildUI *ui.BuildOutput, cfg *config.Config) error {
	if outputPath == "" {
		outputPath = withGoExt(inputPath)
	}
	buildUI.PrintFileStart(inputPath, outputPath)

	resolveStart := time.Now()
	resolver := rbimports.NewResolver(filepath.Dir(os.Args[0]), cfg.Imports.SearchPath...)
	src, imported, origins, err := resolver.Resolve(inputPath)
	resolveDuration := time.Since(resolveStart)
	if err != nil {
		buildUI.PrintStep(ui.Step{Name: "Resolve", Status: ui.StepError, Duration: resolveDuration})
		return err
	}
	buildUI.PrintStep(ui.Step{Name: "Resolve", Status: ui.StepSuccess, Duration: resolveDuration})
	buildUI.PrintImports(imported)

	parseStart := time.Now()
	toks, err := lexer.Tokenize(inputPath, src)
	if err != nil {
		buildUI.PrintStep(ui.Step{Name: "Lex", Status: ui.StepError, Duration: time.Since(parseStart)})
		return err
	}
	rbimports.RemapPositions(toks, origins)
	prog, errs := parser.Parse(toks)
	parseDuration := time.Since(parseStart)
	if len(errs) > 0 {
		buildUI.PrintStep(ui.Step{Name: "Parse", Status: ui.StepError, Duration: parseDuration})
		return fmt.Errorf("%d syntax error(s), first: %s", len(errs), errs[0].Error())
	}
	buildUI.PrintStep(ui.Step{Name: "Parse", Status: ui.StepSuccess, Duration: parseDuration})

	genStart := time.Now()
	tr := transpiler.New()
	result, err := tr.Transpile(prog, inputPath, outputPath)
	genDuration := time.Since(genStart)
	if err != nil {
		buildUI.PrintStep(ui.Step{Name: "Transpile", Status: ui.StepError, Duration: genDuration})
		return err
	}
	buildUI.PrintStep(ui.Step{Name: "Transpile", Status: ui.StepSuccess, Duration: genDuration})

	writeStart := time.Now()
	formatted, err := imports.Process(outputPath, []byte(result.GoSource), nil)
	if err != nil {
		// Emitted source that golang.org/x/tools/imports can't fix up is a
		// transpiler bug; write the raw source anyway so it can be inspected.
		buildUI.PrintWarning(fmt.Sprintf("goimports: %v", err))
		formatted = []byte(result.GoSource)
	}
	if err := os.WriteFile(outputPath, formatted, 0644); err != nil {
		buildUI.PrintStep(ui.Step{Name: "Write", Status: ui.StepError, Duration: time.Since(writeStart)})
		return fmt.Errorf("failed to write output: %w", err)
	}

	if err := writeSourceMap(outputPath, result, cfg); err != nil {
		buildUI.PrintWarning(fmt.Sprintf("failed to write source map: %v", err))
	}

	buildUI.PrintStep(ui.Step{
		Name:     "Write",
		Status:   ui.StepSuccess,
		Duration: time.Since(writeStart),
		Message:  fmt.Sprintf("%d bytes written", len(formatted)),
	})

	return nil
}

func runGoFile(inputPath string) error {
	buildUI := ui.NewBuildOutput()
	buildUI.PrintHeader(version)
	fmt.Println()

	cfg, err := config.Load(nil)
	if err != nil {
		buildUI.PrintError(err.Error())
		return err
	}

	outputPath := withGoExt(inputPath)
	if err := buildFile(inputPath, outputPath, buildUI, cfg); err != nil {
		buildUI.PrintError(err.Error())
		return err
	}

	fmt.Println()
	buildUI.PrintInfo("running " + filepath.Base(outputPath))
	fmt.Println()

	cmd := exec.Command(cfg.Runtime.GoCompiler, "run", outputPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		buildUI.PrintError(fmt.Sprintf("failed to run: %v", err))
		return err
	}
	return nil
}

func runInterpreted(inputPath string) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}

	resolver := rbimports.NewResolver(filepath.Dir(os.Args[0]), cfg.Imports.SearchPath...)
	src, _, origins, err := resolver.Resolve(inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	toks, err := lexer.Tokenize(inputPath, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	rbimports.RemapPositions(toks, origins)

	prog, errs := parser.Parse(toks)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		os.Exit(1)
	}

	loader := ffi.NewPluginLoader()
	defer loader.Close()

	sink := iosink.NewConsole()
	seed := cfg.Runtime.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	in := interp.New(sink, loader, seed)
	if err := in.Run(prog); err != nil {
		if rerr, ok := err.(*interp.RuntimeError); ok {
			rberrors.Fprint(os.Stderr, rberrors.New(rberrors.RuntimeErrorKind, rerr.Pos, "%s", rerr.Msg))
		} else {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
	return nil
}

func withGoExt(inputPath string) string {
	ext := filepath.Ext(inputPath)
	if ext == "" {
		return inputPath + ".go"
	}
	return inputPath[:len(inputPath)-len(ext)] + ".go"
}
