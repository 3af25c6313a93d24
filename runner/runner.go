// Package runner sequences one audit run: directory lookups, classification, workbook
// output and the summary mail, with a single fail-fast boundary that turns the first
// error into a failure notice for the administrator.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"

	"f0oster/adsiteaudit/activedirectory"
	"f0oster/adsiteaudit/activedirectory/ldaphelpers"
	"f0oster/adsiteaudit/audit"
	"f0oster/adsiteaudit/config"
	"f0oster/adsiteaudit/logging"
	"f0oster/adsiteaudit/notify"
	"f0oster/adsiteaudit/report"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FailureSubject is the subject of the mail sent to the administrator when a run fails.
const FailureSubject = "FAILURE"

type Directory interface {
	FetchSites(filter ldaphelpers.Filter) ([]activedirectory.Site, error)
	FetchSubnets(filter ldaphelpers.Filter) ([]activedirectory.Subnet, error)
	FetchUsers(organizationalUnits []string) ([]activedirectory.User, error)
	ResolveComputerNames(organizationalUnits []string) ([]string, error)
	FetchInstalledPrinters(computerNames []string) ([]activedirectory.PrintServer, error)
}

type ArtifactWriter interface {
	WriteIfNonEmpty(path string, table report.Table) (bool, error)
}

type Mailer interface {
	Send(ctx context.Context, msg notify.Message) error
}

type EventLogger interface {
	LogEvent(kind logging.EventKind, message string)
}

// Options tune classification.
type Options struct {
	// MatchEmptyLocation treats an empty subnet location as a known location.
	MatchEmptyLocation bool
}

type Runner struct {
	directory Directory
	writer    ArtifactWriter
	mailer    Mailer
	events    EventLogger
	logger    logrus.FieldLogger
	opts      Options
}

func New(directory Directory, writer ArtifactWriter, mailer Mailer, events EventLogger, logger logrus.FieldLogger, opts Options) *Runner {
	return &Runner{
		directory: directory,
		writer:    writer,
		mailer:    mailer,
		events:    events,
		logger:    logger,
		opts:      opts,
	}
}

// RunResult is everything one run found and produced.
type RunResult struct {
	ID     uuid.UUID
	Prefix string
	Stage  Stage

	Sites             []activedirectory.Site
	Subnets           []activedirectory.Subnet
	AnomalousUsers    []activedirectory.User
	AnomalousPrinters []activedirectory.Printer
	// Artifacts lists produced workbooks in production order, possibly with repeats.
	Artifacts []string
}

// run-local state shared between stages
type state struct {
	job    config.Job
	log    logrus.FieldLogger
	filter audit.LocationFilter
	index  *audit.LocationIndex
}

// Run audits the directory for job. prefix is the run-stamped path every file of the
// run starts with. Finding no anomalies is a successful run. On failure the
// administrator is notified and the returned error is a *StageError.
func (r *Runner) Run(ctx context.Context, job config.Job, prefix string) (*RunResult, error) {
	result := &RunResult{ID: uuid.New(), Prefix: prefix, Stage: StageInit}
	log := r.logger.WithFields(logrus.Fields{"run_id": result.ID.String(), "script": job.ScriptName})
	r.events.LogEvent(logging.EventStart, "Script started")

	st := &state{job: job, log: log}
	steps := []struct {
		stage Stage
		run   func(context.Context, *state, *RunResult) error
	}{
		{StageInit, r.init},
		{StageFiltering, r.buildFilter},
		{StageSiteFetch, r.fetchSites},
		{StageSubnetFetch, r.fetchSubnets},
		{StageIndexBuild, r.buildIndex},
		{StageUserClassify, r.classifyUsers},
		{StagePrinterClassify, r.classifyPrinters},
		{StageReporting, r.writeReports},
		{StageMailing, r.sendSummary},
	}

	for _, step := range steps {
		result.Stage = step.stage
		log.WithField("stage", step.stage.String()).Debug("Entering stage")
		if err := step.run(ctx, st, result); err != nil {
			return result, r.fail(ctx, job, result, log, &StageError{Stage: step.stage, Err: err})
		}
	}

	result.Stage = StageDone
	log.WithFields(logrus.Fields{
		"sites":              len(result.Sites),
		"subnets":            len(result.Subnets),
		"anomalous_users":    len(result.AnomalousUsers),
		"anomalous_printers": len(result.AnomalousPrinters),
		"artifacts":          len(dedupe(result.Artifacts)),
	}).Info("Run completed")
	r.events.LogEvent(logging.EventEnd, "Script ended")
	return result, nil
}

// Abort records a failure that happened before Run could start, such as the directory
// bind, and notifies the administrator the same way a failed stage does.
func (r *Runner) Abort(ctx context.Context, job config.Job, err error) error {
	result := &RunResult{ID: uuid.New(), Stage: StageInit}
	log := r.logger.WithFields(logrus.Fields{"run_id": result.ID.String(), "script": job.ScriptName})
	r.events.LogEvent(logging.EventStart, "Script started")
	return r.fail(ctx, job, result, log, &StageError{Stage: StageInit, Err: err})
}

// fail notifies the administrator only. The summary recipients get nothing.
func (r *Runner) fail(ctx context.Context, job config.Job, result *RunResult, log logrus.FieldLogger, stageErr *StageError) error {
	log.WithField("stage", stageErr.Stage.String()).Warn(stageErr.Error())
	result.Stage = StageFailed

	mailErr := r.mailer.Send(ctx, notify.Message{
		To:       []string{job.ScriptAdmin},
		Subject:  FailureSubject,
		Priority: notify.PriorityHigh,
		HTMLBody: stageErr.Error(),
	})
	r.events.LogEvent(logging.EventError, stageErr.Error())
	r.events.LogEvent(logging.EventEnd, "Script ended")
	if mailErr != nil {
		log.WithError(mailErr).Error("Failed to send failure notice")
		return errors.Join(stageErr, fmt.Errorf("send failure notice: %w", mailErr))
	}
	return stageErr
}

func (r *Runner) init(_ context.Context, st *state, _ *RunResult) error {
	if err := st.job.Validate(); err != nil {
		return err
	}
	if path := st.job.ComputersNotInOU; path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("File '%s' not found.", path)
		}
	}
	return nil
}

func (r *Runner) buildFilter(_ context.Context, st *state, _ *RunResult) error {
	st.filter = audit.NewLocationFilter(st.job.Codes())
	st.log.WithField("filter", st.filter.String()).Debug("Built location filter")
	return nil
}

func (r *Runner) fetchSites(_ context.Context, st *state, result *RunResult) error {
	sites, err := r.directory.FetchSites(st.filter.LDAP())
	if err != nil {
		return err
	}
	result.Sites = sites
	st.log.WithField("sites", len(sites)).Info("Fetched sites")
	return nil
}

func (r *Runner) fetchSubnets(_ context.Context, st *state, result *RunResult) error {
	subnets, err := r.directory.FetchSubnets(st.filter.LDAP())
	if err != nil {
		return err
	}
	result.Subnets = subnets
	st.log.WithField("subnets", len(subnets)).Info("Fetched subnets")
	return nil
}

func (r *Runner) buildIndex(_ context.Context, st *state, result *RunResult) error {
	st.index = audit.NewLocationIndex(result.Subnets, r.opts.MatchEmptyLocation)
	st.log.WithField("locations", st.index.Locations()).Info("Built subnet location index")
	return nil
}

func (r *Runner) classifyUsers(_ context.Context, st *state, result *RunResult) error {
	users, err := r.directory.FetchUsers(st.job.OUs())
	if err != nil {
		return err
	}
	result.AnomalousUsers = audit.Classify(users, audit.UserOffice, st.index)
	st.log.WithFields(logrus.Fields{"users": len(users), "anomalous": len(result.AnomalousUsers)}).Info("Classified users")
	return nil
}

func (r *Runner) classifyPrinters(_ context.Context, st *state, result *RunResult) error {
	var (
		computers []string
		err       error
	)
	if st.job.ComputersNotInOU != "" {
		computers, err = config.ReadComputerList(st.job.ComputersNotInOU)
	} else {
		computers, err = r.directory.ResolveComputerNames(st.job.OUs())
	}
	if err != nil {
		return err
	}

	servers, err := r.directory.FetchInstalledPrinters(computers)
	if err != nil {
		return err
	}
	printers := audit.FlattenPrinters(servers)
	result.AnomalousPrinters = audit.Classify(printers, audit.PrinterLocation, st.index)
	st.log.WithFields(logrus.Fields{
		"computers": len(computers),
		"printers":  len(printers),
		"anomalous": len(result.AnomalousPrinters),
	}).Info("Classified printers")
	return nil
}

func (r *Runner) writeReports(_ context.Context, _ *state, result *RunResult) error {
	sitesPath := report.Path(result.Prefix, report.LabelSitesAndSubnets)
	usersPath := report.Path(result.Prefix, report.LabelUsers)
	printersPath := report.Path(result.Prefix, report.LabelPrinters)

	outputs := []struct {
		path  string
		table report.Table
	}{
		{sitesPath, report.SitesTable(result.Sites)},
		{sitesPath, report.SubnetsTable(result.Subnets)},
		{usersPath, report.SummaryTable("UsersSummary", "Office", audit.Summarize(result.AnomalousUsers, audit.UserOffice))},
		{usersPath, report.UsersTable(audit.UserDetails(result.AnomalousUsers))},
		{printersPath, report.SummaryTable("PrintersSummary", "Location", audit.Summarize(result.AnomalousPrinters, audit.PrinterLocation))},
		{printersPath, report.PrintersTable(audit.PrinterDetails(result.AnomalousPrinters))},
	}

	for _, output := range outputs {
		produced, err := r.writer.WriteIfNonEmpty(output.path, output.table)
		if err != nil {
			return err
		}
		if produced {
			result.Artifacts = append(result.Artifacts, output.path)
		}
	}
	return nil
}

func (r *Runner) sendSummary(ctx context.Context, st *state, result *RunResult) error {
	attachments := dedupe(result.Artifacts)
	summary := notify.Summary{
		Title:        st.job.ScriptName,
		CountryCodes: st.filter.Codes(),
		OUs:          st.job.OUs(),
		Sites:        len(result.Sites),
		Subnets:      len(result.Subnets),
		Users:        len(result.AnomalousUsers),
		Printers:     len(result.AnomalousPrinters),
		Attachments:  len(attachments),
	}
	body, err := notify.RenderSummary(summary)
	if err != nil {
		return err
	}

	return r.mailer.Send(ctx, notify.Message{
		To:           st.job.MailTo,
		Bcc:          []string{st.job.ScriptAdmin},
		Subject:      summary.Subject(),
		HTMLBody:     body,
		Attachments:  attachments,
		SaveCopyPath: result.Prefix + " - Mail - Summary.html",
	})
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		unique = append(unique, path)
	}
	return unique
}
