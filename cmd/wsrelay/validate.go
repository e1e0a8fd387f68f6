package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/wsrelay/pkg/cli"
	"mercator-hq/wsrelay/pkg/config"
	securityTLS "mercator-hq/wsrelay/pkg/security/tls"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without starting the server.

The file is decoded with environment overrides applied, every field is
validated, and when TLS is enabled the certificate and key are loaded and
checked for expiry.

Examples:
  # Validate the default config
  wsrelay validate

  # Validate a specific file and print JSON
  wsrelay validate --config /etc/wsrelay/config.toml --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

// ValidationReport summarizes a validated configuration.
type ValidationReport struct {
	File        string                       `json:"file"`
	Listen      string                       `json:"listen"`
	TLS         bool                         `json:"tls"`
	Users       int                          `json:"users"`
	REST        bool                         `json:"rest"`
	Journal     string                       `json:"journal,omitempty"`
	Certificate *securityTLS.CertificateInfo `json:"certificate,omitempty"`
	Warnings    []string                     `json:"warnings,omitempty"`
}

// Header implements cli.Table.
func (r *ValidationReport) Header() []string {
	return []string{"SETTING", "VALUE"}
}

// Rows implements cli.Table.
func (r *ValidationReport) Rows() [][]string {
	rows := [][]string{
		{"file", r.File},
		{"listen", r.Listen},
		{"tls", strconv.FormatBool(r.TLS)},
		{"users", strconv.Itoa(r.Users)},
		{"rest", strconv.FormatBool(r.REST)},
	}
	if r.Journal != "" {
		rows = append(rows, []string{"journal", r.Journal})
	}
	if r.Certificate != nil {
		rows = append(rows,
			[]string{"certificate", r.Certificate.Subject},
			[]string{"expires", r.Certificate.NotAfter.Format("2006-01-02")},
		)
	}
	for _, w := range r.Warnings {
		rows = append(rows, []string{"warning", w})
	}
	return rows
}

func validateConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return fmt.Errorf("validate does not support csv output")
	}

	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	report, err := buildReport(cfgFile, cfg)
	if err != nil {
		return err
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if format == cli.FormatText {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
	}
	return nil
}

// buildReport checks the parts of cfg that Validate cannot: the certificate
// and key must load as a pair.
func buildReport(path string, cfg *config.Config) (*ValidationReport, error) {
	report := &ValidationReport{
		File:   path,
		Listen: cfg.Server.ListenAddress(),
		TLS:    cfg.Server.EnableTLS,
		Users:  cfg.UserCount(),
		REST:   cfg.REST.Enabled,
	}
	if cfg.Journal.Enabled {
		report.Journal = cfg.Journal.Backend
	}
	if cfg.Journal.Enabled && cfg.Journal.Backend == "memory" {
		report.Warnings = append(report.Warnings, "journal uses the memory backend; records are lost on exit")
	}
	if cfg.Server.InsecureSkipVerify {
		report.Warnings = append(report.Warnings, "target certificate verification is disabled")
	}

	if cfg.Server.EnableTLS {
		if _, err := securityTLS.NewAcceptor(cfg.Server.TLSCert, cfg.Server.TLSKey, securityTLS.AcceptorOptions{
			MinVersion: cfg.Server.TLS.MinVersion,
		}); err != nil {
			return nil, cli.NewConfigError("server.tls_cert", err.Error())
		}
		info, err := securityTLS.LoadCertificateInfo(cfg.Server.TLSCert)
		if err != nil {
			return nil, cli.NewConfigError("server.tls_cert", err.Error())
		}
		report.Certificate = info
		if info.DaysUntilExpiry < securityTLS.ExpiryWarningDays {
			report.Warnings = append(report.Warnings, fmt.Sprintf("certificate expires in %d days", info.DaysUntilExpiry))
		}
	}

	return report, nil
}
