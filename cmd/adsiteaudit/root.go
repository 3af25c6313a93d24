package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"f0oster/adsiteaudit/activedirectory"
	"f0oster/adsiteaudit/config"
	"f0oster/adsiteaudit/logging"
	"f0oster/adsiteaudit/notify"
	"f0oster/adsiteaudit/report"
	"f0oster/adsiteaudit/runner"
)

type flags struct {
	envFile          string
	jobFile          string
	scriptName       string
	ou               []string
	countryCode      []string
	mailTo           []string
	computersNotInOU string
	logFolder        string
	scriptAdmin      string
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "adsiteaudit",
		Short:         "Report users and printers whose location has no matching AD subnet",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.envFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			job, err := buildJob(cmd, f, cfg)
			if err != nil {
				return err
			}
			return run(cmd, cfg, job)
		},
	}

	cmd.Flags().StringVar(&f.envFile, "env", config.DefaultEnvFile, "Environment file with LDAP and SMTP settings")
	cmd.Flags().StringVar(&f.jobFile, "job", "", "YAML file with the audit parameters")
	cmd.Flags().StringVar(&f.scriptName, "script-name", "", "Name of the run, used in the log folder and mail title")
	cmd.Flags().StringSliceVar(&f.ou, "ou", nil, "Organizational unit to audit (repeatable)")
	cmd.Flags().StringSliceVar(&f.countryCode, "country-code", nil, "Location prefix of the sites and subnets to load (repeatable)")
	cmd.Flags().StringSliceVar(&f.mailTo, "mail-to", nil, "Summary recipient (repeatable)")
	cmd.Flags().StringVar(&f.computersNotInOU, "computers-not-in-ou", "", "File listing print servers to scan instead of the OU computers")
	cmd.Flags().StringVar(&f.logFolder, "log-folder", "", "Root folder for logs and reports")
	cmd.Flags().StringVar(&f.scriptAdmin, "script-admin", "", "Administrator address, BCC'd on the summary and sent failures")
	return cmd
}

// buildJob starts from the job file and lets explicitly set flags override it.
func buildJob(cmd *cobra.Command, f flags, cfg config.Configuration) (config.Job, error) {
	var job config.Job
	if f.jobFile != "" {
		loaded, err := config.LoadJob(f.jobFile)
		if err != nil {
			return config.Job{}, err
		}
		job = loaded
	}

	changed := cmd.Flags().Changed
	if changed("script-name") {
		job.ScriptName = f.scriptName
	}
	if changed("ou") {
		job.OU = f.ou
	}
	if changed("country-code") {
		job.CountryCode = f.countryCode
	}
	if changed("mail-to") {
		job.MailTo = f.mailTo
	}
	if changed("computers-not-in-ou") {
		job.ComputersNotInOU = f.computersNotInOU
	}
	if changed("log-folder") {
		job.LogFolder = f.logFolder
	}
	if changed("script-admin") {
		job.ScriptAdmin = f.scriptAdmin
	}
	return job.WithDefaults(cfg), nil
}

func run(cmd *cobra.Command, cfg config.Configuration, job config.Job) error {
	scriptName := job.ScriptName
	if strings.TrimSpace(scriptName) == "" {
		scriptName = "adsiteaudit"
	}
	prefix := logging.RunPrefix(job.LogFolder, scriptName, time.Now())

	logger, closeLog, err := logging.New(cfg.LogLevel, logging.LogFile(prefix))
	if err != nil {
		return err
	}
	defer closeLog()

	mailer, err := notify.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		logger.WithError(err).Error("Failed to create mailer")
		return err
	}

	ad := activedirectory.NewActiveDirectoryInstance(cfg.LDAP.BaseDN, cfg.LDAP.DcFQDN, cfg.LDAP.PageSize, cfg.LDAP.UseTLS, logger)
	r := runner.New(
		ad,
		report.NewWriter(logger),
		mailer,
		logging.NewEventLogger(logger, scriptName),
		logger,
		runner.Options{MatchEmptyLocation: cfg.MatchEmptyLocation},
	)

	ctx := cmd.Context()
	if err := connect(ad, cfg.LDAP); err != nil {
		return r.Abort(ctx, job, err)
	}
	defer ad.Close()

	result, err := r.Run(ctx, job, prefix)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d users, %d printers outside known subnet locations\n",
		len(result.AnomalousUsers), len(result.AnomalousPrinters))
	return nil
}

func connect(ad *activedirectory.ActiveDirectoryInstance, opts config.LDAPOptions) error {
	if err := ad.Connect(opts.Username, opts.Password); err != nil {
		return err
	}
	if err := ad.FetchConfigurationContext(); err != nil {
		ad.Close()
		return err
	}
	return nil
}
