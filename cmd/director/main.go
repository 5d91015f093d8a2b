package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/term"

	"director/pkg/config"
	"director/pkg/logx"
	"director/pkg/persistence"
	"director/pkg/version"
)

func main() {
	var (
		projectDir   = flag.String("projectdir", ".", "Project directory")
		model        = flag.String("model", "", "Reasoning model (overrides config)")
		debug        = flag.Bool("debug", false, "Enable debug logging")
		showVersion  = flag.Bool("version", false, "Show version information")
		continueMode = flag.Bool("continue", false, "Resume from the most recent shutdown session")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("director %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
		os.Exit(0)
	}

	if *debug {
		logx.SetDebugConfig(true, false, "")
	}

	os.Exit(run(*projectDir, *model, *continueMode))
}

// run contains the main application logic and returns an exit code.
// This allows defers to execute before os.Exit is called.
func run(projectDir, modelOverride string, continueMode bool) int {
	if err := config.LoadConfig(projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "Config load failed: %v\n", err)
		return 1
	}

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if modelOverride != "" {
		cfg.Agent.Model = modelOverride
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid model override: %v\n", err)
			return 1
		}
	}

	if err := handleSecretsDecryption(projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to handle secrets: %v\n", err)
		return 1
	}

	dbPath := filepath.Join(projectDir, config.DirectorDirName, "director.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s directory: %v\n", config.DirectorDirName, err)
		return 1
	}
	if err := persistence.Initialize(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Database init failed: %v\n", err)
		return 1
	}
	defer func() { _ = persistence.Close() }()

	app, err := bootstrap(projectDir, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		return 1
	}
	defer app.shutdown()

	if err := app.runInteractive(continueMode); err != nil {
		fmt.Fprintf(os.Stderr, "Director failed: %v\n", err)
		return 1
	}
	return 0
}

// handleSecretsDecryption loads API keys from the encrypted secrets file if
// one exists, prompting for the project password. Without a secrets file,
// keys come from the environment.
func handleSecretsDecryption(projectDir string) error {
	if !config.SecretsFileExists(projectDir) {
		return nil
	}

	fmt.Print("Enter project password to unlock credentials: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	secrets, err := config.DecryptSecretsFile(projectDir, string(password))
	if err != nil {
		return err
	}
	config.SetDecryptedSecrets(secrets)
	config.LogInfo("🔓 Credentials loaded from %s/secrets.json.enc", config.DirectorDirName)
	return nil
}
