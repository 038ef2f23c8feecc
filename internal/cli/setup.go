package cli

import (
	"bufio"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trackforge/s2s/internal/config"
	"github.com/trackforge/s2s/internal/database"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive first-run setup",
	Long: `Walk through database configuration, verify connectivity, create the
schema, and write the config file with an install lock.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup()
	},
}

// readPassword is swappable in tests; terminals get no-echo input.
var readPassword = func() (string, error) {
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func runSetup() error {
	status, err := config.CheckSetupStatus()
	if err != nil {
		return err
	}
	if !status.NeedsSetup {
		fmt.Println("Setup already completed. Edit s2s.toml to change settings.")
		return nil
	}

	fmt.Println("s2s setup")
	fmt.Println("=========")
	if status.Reason != "" {
		fmt.Printf("Reason: %s\n", status.Reason)
	}
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label, fallback string) string {
		if fallback != "" {
			fmt.Printf("%s [%s]: ", label, fallback)
		} else {
			fmt.Printf("%s: ", label)
		}
		line, _ := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			return fallback
		}
		return line
	}

	dbCfg := config.DatabaseConfig{Type: "postgres"}
	dbCfg.Host = prompt("Database host", "localhost")
	portStr := prompt("Database port", "5432")
	if dbCfg.Port, err = strconv.Atoi(portStr); err != nil {
		return fmt.Errorf("invalid port %q", portStr)
	}
	dbCfg.Name = prompt("Database name", "s2s")
	dbCfg.User = prompt("Database user", "s2s")
	fmt.Print("Database password: ")
	if dbCfg.Password, err = readPassword(); err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	dbCfg.SSLMode = prompt("SSL mode", "disable")

	databaseURL := config.BuildDatabaseURL(dbCfg)

	fmt.Println("\nVerifying database connection...")
	if err := verifyConnection(databaseURL); err != nil {
		return fmt.Errorf("cannot connect to database: %w", err)
	}
	fmt.Println("Connection OK.")

	fmt.Println("Creating schema...")
	if err := database.ConnectWithURL(databaseURL); err != nil {
		return err
	}
	defer func() { _ = database.Close() }()
	if err := database.Migrate(); err != nil {
		return err
	}
	fmt.Println("Schema ready.")

	cfg := &config.Config{
		DatabaseURL:   databaseURL,
		Port:          prompt("HTTP port", "3000"),
		DataDir:       prompt("Data directory", "./data"),
		PublicBaseURL: prompt("Public base URL (for tracking links)", ""),
		SecureCookies: true,
	}
	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Println()
	fmt.Println("Setup complete. Start the server with: s2s serve")
	return nil
}

func verifyConnection(databaseURL string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return db.Ping()
}

func init() {
	RootCmd.AddCommand(setupCmd)
}
