package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hprofdump",
	Short: "Inspect JVM HPROF heap dumps",
	Long:  `hprofdump opens HPROF heap-dump files and lets you browse their records, GC roots, and classes without decoding the whole dump up front.`,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() == "install" || cmd.Name() == "version" || cmd.Name() == "help" {
			return
		}

		if !isShellSupported() {
			return // Skip auto-setup for unsupported shells
		}

		if !completionsExist() {
			fmt.Println("🔧 First run detected, setting up hprofdump...")
			if installCompletions(cmd.Root()) == nil {
				fmt.Println("✅ Shell completions installed")
				fmt.Println("💡 Restart your shell to enable tab completion")
			} else {
				fmt.Println("⚠️  Auto-setup failed. Run 'hprofdump install' to try again.")
			}
		}
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install shell completions",
	Run: func(cmd *cobra.Command, args []string) {
		if !isInPath() {
			printPathInstructions()
			return
		}

		if !isShellSupported() {
			fmt.Printf("❌ Shell completion not supported for: %s\n", detectShell())
			fmt.Println("Supported shells: bash, zsh, fish, powershell")
			return
		}

		if completionsExist() {
			fmt.Println("✅ Already configured!")
			return
		}

		fmt.Println("📦 Installing completions...")
		if err := installCompletions(cmd.Root()); err != nil {
			fmt.Printf("❌ Failed: %v\n", err)
		} else {
			fmt.Println("✅ Done! Restart your shell to enable tab completion.")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func GetRootCmd() *cobra.Command {
	return rootCmd
}

func completionsExist() bool {
	config, ok := completionConfigs(rootCmd)[detectShell()]
	if !ok {
		return false
	}
	_, err := os.Stat(filepath.Join(config.dir, config.file))
	return err == nil
}

func isShellSupported() bool {
	shell := detectShell()
	return shell == "bash" || shell == "zsh" || shell == "fish" || shell == "powershell"
}

func detectShell() string {
	if runtime.GOOS == "windows" {
		return "powershell"
	}

	shell := filepath.Base(os.Getenv("SHELL"))
	if shell == "" {
		return "bash"
	}
	return shell
}

type completionConfig struct {
	dir         string
	file        string
	genFunc     func(rootCmd *cobra.Command, w io.Writer) error
	activateCmd string
}

// completionConfigs is the single source of truth for where each
// shell's completion script lives; completionsExist and
// installCompletions both read from it instead of keeping their own
// copies of the same paths in sync.
func completionConfigs(rootCmd *cobra.Command) map[string]completionConfig {
	home, _ := os.UserHomeDir()

	bashPath := filepath.Join(home, ".local/share/bash-completion/completions")
	zshPath := filepath.Join(home, ".zsh/completions")
	fishPath := filepath.Join(home, ".config/fish/completions")

	return map[string]completionConfig{
		"bash": {
			dir:         bashPath,
			file:        "hprofdump",
			genFunc:     func(rootCmd *cobra.Command, w io.Writer) error { return rootCmd.GenBashCompletion(w) },
			activateCmd: fmt.Sprintf("source %s", filepath.Join(bashPath, "hprofdump")),
		},
		"zsh": {
			dir:         zshPath,
			file:        "_hprofdump",
			genFunc:     func(rootCmd *cobra.Command, w io.Writer) error { return rootCmd.GenZshCompletion(w) },
			activateCmd: fmt.Sprintf("fpath=(%s $fpath) && autoload -U compinit && compinit", zshPath),
		},
		"fish": {
			dir:         fishPath,
			file:        "hprofdump.fish",
			genFunc:     func(rootCmd *cobra.Command, w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
			activateCmd: "complete --do-complete=hprofdump",
		},
		"powershell": {
			dir:         home,
			file:        "hprofdump_completion.ps1",
			genFunc:     func(rootCmd *cobra.Command, w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
			activateCmd: fmt.Sprintf(". %s", filepath.Join(home, "hprofdump_completion.ps1")),
		},
	}
}

func installCompletions(rootCmd *cobra.Command) error {
	shell := detectShell()
	config, ok := completionConfigs(rootCmd)[shell]
	if !ok {
		return fmt.Errorf("unsupported shell: %s", shell)
	}

	os.MkdirAll(config.dir, 0755)

	file, err := os.Create(filepath.Join(config.dir, config.file))
	if err != nil {
		return err
	}
	defer file.Close()

	if err := config.genFunc(rootCmd, file); err != nil {
		return err
	}

	fmt.Printf("🔄 Running this command to enable auto-completions:\n")
	fmt.Printf("   %s\n", config.activateCmd)

	return nil
}

func isInPath() bool {
	execPath, err := os.Executable()
	if err != nil {
		return false
	}

	pathEnv := os.Getenv("PATH")
	paths := strings.Split(pathEnv, string(os.PathListSeparator))
	execDir := filepath.Dir(execPath)

	return slices.Contains(paths, execDir)
}

func printPathInstructions() {
	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)

	fmt.Printf("❌ hprofdump not in PATH. Binary location: %s\n\n", execPath)

	if runtime.GOOS == "windows" {
		fmt.Printf("Add to PATH: %s\n", execDir)
	} else {
		fmt.Printf("Add to shell profile: export PATH=\"%s:$PATH\"\n", execDir)
		fmt.Printf("Or copy to: /usr/local/bin\n")
	}
}

func init() {
	rootCmd.AddCommand(installCmd)
}
