package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/isdmx/compilebox/config"
	"github.com/isdmx/compilebox/logger"
	"github.com/isdmx/compilebox/sandbox"
)

var langFlag string

// errCompilationFailed makes the process exit non-zero after the message was printed.
var errCompilationFailed = errors.New("compilation failed")

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Compile and run one source file",
	Long: `Compile and run one source file. Use "-" to read the source from stdin.

The language is taken from --lang, or guessed from the file extension
(.c, .cc, .cpp, .cxx -> c; .java -> java).

Examples:
  compilebox run hello.cpp
  compilebox run --lang java Main.java
  cat prog.cc | compilebox run --lang c -`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&langFlag, "lang", "", "Source language (c or java)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]

	language, err := resolveLanguage(langFlag, path)
	if err != nil {
		return err
	}

	source, err := readSource(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configFlag)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	svc, err := sandbox.NewServiceFromConfig(log, cfg)
	if err != nil {
		return fmt.Errorf("creating sandbox: %w", err)
	}

	result := svc.Compile(cmd.Context(), sandbox.CompilationRequest{
		Language: language,
		Source:   source,
	})

	fmt.Fprint(cmd.OutOrStdout(), result.Output)
	if result.Failed {
		return errCompilationFailed
	}
	return nil
}

func resolveLanguage(flag, path string) (sandbox.Language, error) {
	if flag != "" {
		return sandbox.ParseLanguage(flag)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".cc", ".cpp", ".cxx":
		return sandbox.LanguageC, nil
	case ".java":
		return sandbox.LanguageJava, nil
	default:
		return "", fmt.Errorf("cannot infer language of %q, pass --lang", path)
	}
}

func readSource(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return string(data), nil
}
