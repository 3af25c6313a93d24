package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"f0oster/adsiteaudit/activedirectory"
	"f0oster/adsiteaudit/activedirectory/ldaphelpers"
	"f0oster/adsiteaudit/config"
	"f0oster/adsiteaudit/logging"
	"f0oster/adsiteaudit/notify"
	"f0oster/adsiteaudit/report"
	"f0oster/adsiteaudit/runner"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeDirectory struct {
	sites    []activedirectory.Site
	subnets  []activedirectory.Subnet
	users    []activedirectory.User
	servers  []activedirectory.PrintServer
	siteErr  error
	userErr  error
	filters  []string
	calls    []string
	scanned  []string
	resolved []string
	ous      []string
}

func (d *fakeDirectory) FetchSites(filter ldaphelpers.Filter) ([]activedirectory.Site, error) {
	d.calls = append(d.calls, "sites")
	d.filters = append(d.filters, filter.String())
	return d.sites, d.siteErr
}

func (d *fakeDirectory) FetchSubnets(filter ldaphelpers.Filter) ([]activedirectory.Subnet, error) {
	d.calls = append(d.calls, "subnets")
	d.filters = append(d.filters, filter.String())
	return d.subnets, nil
}

func (d *fakeDirectory) FetchUsers(ous []string) ([]activedirectory.User, error) {
	d.calls = append(d.calls, "users")
	d.ous = ous
	return d.users, d.userErr
}

func (d *fakeDirectory) ResolveComputerNames(_ []string) ([]string, error) {
	d.calls = append(d.calls, "computers")
	return d.resolved, nil
}

func (d *fakeDirectory) FetchInstalledPrinters(names []string) ([]activedirectory.PrintServer, error) {
	d.calls = append(d.calls, "printers")
	d.scanned = names
	return d.servers, nil
}

type fakeMailer struct {
	sent []notify.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	m.sent = append(m.sent, msg)
	if m.err != nil {
		return m.err
	}
	if msg.SaveCopyPath != "" {
		return notify.SaveCopy(msg.SaveCopyPath, msg.HTMLBody)
	}
	return nil
}

type fakeEvents struct {
	kinds []logging.EventKind
}

func (e *fakeEvents) LogEvent(kind logging.EventKind, _ string) {
	e.kinds = append(e.kinds, kind)
}

type harness struct {
	dir       *fakeDirectory
	mailer    *fakeMailer
	events    *fakeEvents
	runner    *runner.Runner
	hook      *test.Hook
	logFolder string
	prefix    string
}

func newHarness(t *testing.T, dir *fakeDirectory) *harness {
	t.Helper()
	logger, hook := test.NewNullLogger()
	folder := t.TempDir()
	h := &harness{
		dir:       dir,
		hook:      hook,
		mailer:    &fakeMailer{},
		events:    &fakeEvents{},
		logFolder: folder,
		prefix:    filepath.Join(folder, "2024-01-15 103000 (Monday) Test"),
	}
	h.runner = runner.New(dir, report.NewWriter(logger), h.mailer, h.events, logger, runner.Options{})
	return h
}

func testJob() config.Job {
	return config.Job{
		ScriptName:  "Test",
		OU:          []string{"OU=BEL,DC=contoso,DC=net"},
		CountryCode: []string{"XXX"},
		MailTo:      []string{"ops@contoso.net"},
		ScriptAdmin: "admin@contoso.net",
	}
}

func leuvenSubnet() []activedirectory.Subnet {
	return []activedirectory.Subnet{{Name: "10.10.10.00/2", Location: "Leuven", SiteName: "XXX-My Site-1"}}
}

func workbooks(t *testing.T, folder string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(folder, "*.xlsx"))
	require.NoError(t, err)
	for i := range matches {
		matches[i] = filepath.Base(matches[i])
	}
	return matches
}

func readSheet(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestRun_SitesWorkbook(t *testing.T) {
	h := newHarness(t, &fakeDirectory{
		sites: []activedirectory.Site{{Name: "XXX-My Site-1", Location: "XXX-Leuven", ObjectClass: "site"}},
	})

	result, err := h.runner.Run(context.Background(), testJob(), h.prefix)
	require.NoError(t, err)
	require.Equal(t, runner.StageDone, result.Stage)

	require.Equal(t, []string{"(|(location=XXX*))", "(|(location=XXX*))"}, h.dir.filters)

	path := report.Path(h.prefix, report.LabelSitesAndSubnets)
	require.Equal(t, []string{filepath.Base(path)}, workbooks(t, h.logFolder))
	rows := readSheet(t, path, "Sites")
	require.Len(t, rows, 2)
	require.Equal(t, "XXX-My Site-1", rows[1][0])
}

func TestRun_AnomalousUser(t *testing.T) {
	h := newHarness(t, &fakeDirectory{
		subnets: leuvenSubnet(),
		users:   []activedirectory.User{{LogonName: "bob", DisplayName: "Bob", Office: "Brussels"}},
	})

	result, err := h.runner.Run(context.Background(), testJob(), h.prefix)
	require.NoError(t, err)
	require.Len(t, result.AnomalousUsers, 1)

	path := report.Path(h.prefix, report.LabelUsers)
	require.Contains(t, workbooks(t, h.logFolder), filepath.Base(path))
	require.Equal(t, [][]string{{"Office", "Count"}, {"Brussels", "1"}}, readSheet(t, path, "Summary"))
	require.Equal(t, "bob", readSheet(t, path, "Users")[1][1])

	require.Len(t, h.mailer.sent, 1)
	msg := h.mailer.sent[0]
	require.Equal(t, "1 users, 0 printers", msg.Subject)
	require.Contains(t, msg.Attachments, path)
}

func TestRun_MatchingUserProducesNoWorkbook(t *testing.T) {
	h := newHarness(t, &fakeDirectory{
		subnets: leuvenSubnet(),
		users:   []activedirectory.User{{LogonName: "ann", Office: "Leuven"}},
	})

	result, err := h.runner.Run(context.Background(), testJob(), h.prefix)
	require.NoError(t, err)
	require.Empty(t, result.AnomalousUsers)
	require.NotContains(t, workbooks(t, h.logFolder), filepath.Base(report.Path(h.prefix, report.LabelUsers)))
}

func TestRun_MissingComputerFile(t *testing.T) {
	h := newHarness(t, &fakeDirectory{subnets: leuvenSubnet()})
	job := testJob()
	job.ComputersNotInOU = filepath.Join(h.logFolder, "missing.txt")

	result, err := h.runner.Run(context.Background(), job, h.prefix)
	require.Error(t, err)
	require.Equal(t, runner.StageFailed, result.Stage)

	var stageErr *runner.StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, runner.StageInit, stageErr.Stage)

	require.Len(t, h.mailer.sent, 1)
	msg := h.mailer.sent[0]
	require.Equal(t, []string{"admin@contoso.net"}, msg.To)
	require.Empty(t, msg.Bcc)
	require.Equal(t, runner.FailureSubject, msg.Subject)
	require.Equal(t, notify.PriorityHigh, msg.Priority)
	require.Regexp(t, `^File '.*' not found\.$`, msg.HTMLBody)

	require.Empty(t, h.dir.calls)
	require.Empty(t, workbooks(t, h.logFolder))
	require.Equal(t, []logging.EventKind{logging.EventStart, logging.EventError, logging.EventEnd}, h.events.kinds)
}

func TestRun_AnomalousPrinter(t *testing.T) {
	h := newHarness(t, &fakeDirectory{
		subnets:  leuvenSubnet(),
		resolved: []string{"S1"},
		servers: []activedirectory.PrintServer{{ServerName: "S1", Printers: []activedirectory.Printer{
			{ServerName: "S1", PrinterName: "Floor2", Location: "Brussels"},
		}}},
	})

	result, err := h.runner.Run(context.Background(), testJob(), h.prefix)
	require.NoError(t, err)
	require.Len(t, result.AnomalousPrinters, 1)
	require.Equal(t, []string{"S1"}, h.dir.scanned)

	path := report.Path(h.prefix, report.LabelPrinters)
	require.Equal(t, [][]string{{"ServerName", "PrinterName", "Location"}, {"S1", "Floor2", "Brussels"}}, readSheet(t, path, "Printers"))
	require.Equal(t, [][]string{{"Location", "Count"}, {"Brussels", "1"}}, readSheet(t, path, "Summary"))
}

func TestRun_ComputerFileReplacesOUDiscovery(t *testing.T) {
	h := newHarness(t, &fakeDirectory{subnets: leuvenSubnet()})
	list := filepath.Join(h.logFolder, "computers.txt")
	require.NoError(t, os.WriteFile(list, []byte("PRINT01\nPRINT02\n"), 0o600))
	job := testJob()
	job.ComputersNotInOU = list

	_, err := h.runner.Run(context.Background(), job, h.prefix)
	require.NoError(t, err)
	require.Equal(t, []string{"PRINT01", "PRINT02"}, h.dir.scanned)
	require.NotContains(t, h.dir.calls, "computers")
}

func TestRun_NoAnomaliesIsSuccess(t *testing.T) {
	h := newHarness(t, &fakeDirectory{})

	result, err := h.runner.Run(context.Background(), testJob(), h.prefix)
	require.NoError(t, err)
	require.Equal(t, runner.StageDone, result.Stage)
	require.Empty(t, result.Artifacts)
	require.Empty(t, workbooks(t, h.logFolder))

	require.Len(t, h.mailer.sent, 1)
	msg := h.mailer.sent[0]
	require.Equal(t, []string{"ops@contoso.net"}, msg.To)
	require.Equal(t, []string{"admin@contoso.net"}, msg.Bcc)
	require.Equal(t, "0 users, 0 printers", msg.Subject)
	require.Empty(t, msg.Attachments)
	require.Equal(t, []logging.EventKind{logging.EventStart, logging.EventEnd}, h.events.kinds)

	copyBody, err := os.ReadFile(h.prefix + " - Mail - Summary.html")
	require.NoError(t, err)
	require.Equal(t, msg.HTMLBody, string(copyBody))
	require.Contains(t, msg.HTMLBody, "OU=BEL,DC=contoso,DC=net")
}

func TestRun_AttachmentsDeduplicated(t *testing.T) {
	h := newHarness(t, &fakeDirectory{
		sites:   []activedirectory.Site{{Name: "XXX-My Site-1", Location: "XXX-Leuven"}},
		subnets: leuvenSubnet(),
		users:   []activedirectory.User{{LogonName: "bob", Office: "Brussels"}},
	})

	result, err := h.runner.Run(context.Background(), testJob(), h.prefix)
	require.NoError(t, err)
	require.Len(t, result.Artifacts, 4)

	require.Equal(t, []string{
		report.Path(h.prefix, report.LabelSitesAndSubnets),
		report.Path(h.prefix, report.LabelUsers),
	}, h.mailer.sent[0].Attachments)
}

func TestRun_CollaboratorFailureStopsRun(t *testing.T) {
	h := newHarness(t, &fakeDirectory{siteErr: errors.New("ldap: server down")})

	result, err := h.runner.Run(context.Background(), testJob(), h.prefix)
	require.EqualError(t, err, "ldap: server down")
	require.Equal(t, runner.StageFailed, result.Stage)

	var stageErr *runner.StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, runner.StageSiteFetch, stageErr.Stage)
	require.Equal(t, []string{"sites"}, h.dir.calls)

	require.Len(t, h.mailer.sent, 1)
	require.Equal(t, "ldap: server down", h.mailer.sent[0].HTMLBody)
}

func TestRun_FailureNoticeErrorIsJoined(t *testing.T) {
	h := newHarness(t, &fakeDirectory{userErr: errors.New("ldap: busy")})
	h.mailer.err = errors.New("smtp: refused")

	_, err := h.runner.Run(context.Background(), testJob(), h.prefix)
	require.ErrorContains(t, err, "ldap: busy")
	require.ErrorContains(t, err, "smtp: refused")

	var stageErr *runner.StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, runner.StageUserClassify, stageErr.Stage)
}

func TestRun_InvalidJob(t *testing.T) {
	h := newHarness(t, &fakeDirectory{})
	job := testJob()
	job.CountryCode = nil

	_, err := h.runner.Run(context.Background(), job, h.prefix)
	require.ErrorIs(t, err, config.ErrMissingCountryCode)
	require.Empty(t, h.dir.calls)
}

func TestStageString(t *testing.T) {
	require.Equal(t, "PrinterClassify", runner.StagePrinterClassify.String())
	require.Equal(t, "Failed", runner.StageFailed.String())
	require.Equal(t, "Unknown", runner.Stage(42).String())
}

func TestAbort(t *testing.T) {
	h := newHarness(t, &fakeDirectory{})

	err := h.runner.Abort(context.Background(), testJob(), errors.New("LDAP Result Code 49"))
	require.EqualError(t, err, "LDAP Result Code 49")

	require.Len(t, h.mailer.sent, 1)
	require.Equal(t, runner.FailureSubject, h.mailer.sent[0].Subject)
	require.Equal(t, []string{"admin@contoso.net"}, h.mailer.sent[0].To)
	require.Equal(t, []logging.EventKind{logging.EventStart, logging.EventError, logging.EventEnd}, h.events.kinds)
}

func TestRun_StageOrderAndSingleSubnetLookup(t *testing.T) {
	h := newHarness(t, &fakeDirectory{
		sites:    []activedirectory.Site{{Name: "XXX-My Site-1", Location: "XXX-Leuven"}},
		subnets:  leuvenSubnet(),
		users:    []activedirectory.User{{LogonName: "bob", Office: "Brussels"}, {LogonName: "ann", Office: "Leuven"}},
		resolved: []string{"S1"},
		servers: []activedirectory.PrintServer{{ServerName: "S1", Printers: []activedirectory.Printer{
			{ServerName: "S1", PrinterName: "Floor1", Location: "Leuven"},
			{ServerName: "S1", PrinterName: "Floor2", Location: "Gent"},
		}}},
	})

	result, err := h.runner.Run(context.Background(), testJob(), h.prefix)
	require.NoError(t, err)
	require.Equal(t, runner.StageDone, result.Stage)
	require.Equal(t, []string{"sites", "subnets", "users", "computers", "printers"}, h.dir.calls)
	require.Len(t, result.AnomalousUsers, 1)
	require.Len(t, result.AnomalousPrinters, 1)
	require.Len(t, workbooks(t, h.logFolder), 3)
	require.Equal(t, "1 users, 1 printers", h.mailer.sent[0].Subject)
}

func TestRun_LogEntriesCarryRunID(t *testing.T) {
	h := newHarness(t, &fakeDirectory{subnets: leuvenSubnet(), users: []activedirectory.User{{LogonName: "bob", Office: "Gent"}}})

	result, err := h.runner.Run(context.Background(), testJob(), h.prefix)
	require.NoError(t, err)

	messages := map[string]bool{}
	for _, entry := range h.hook.AllEntries() {
		if _, fromWriter := entry.Data["path"]; fromWriter {
			continue
		}
		require.Equal(t, result.ID.String(), entry.Data["run_id"], entry.Message)
		require.Equal(t, "Test", entry.Data["script"], entry.Message)
		messages[entry.Message] = true
	}
	require.True(t, messages["Fetched subnets"])
	require.True(t, messages["Classified users"])
	require.True(t, messages["Run completed"])
}

func TestRun_BlankOUEntriesSkipped(t *testing.T) {
	dir := &fakeDirectory{}
	h := newHarness(t, dir)
	job := testJob()
	job.OU = []string{"", "OU=BEL,DC=contoso,DC=net"}

	result, err := h.runner.Run(context.Background(), job, h.prefix)
	require.NoError(t, err)
	require.Equal(t, runner.StageDone, result.Stage)
	require.Equal(t, []string{"OU=BEL,DC=contoso,DC=net"}, dir.ous)
	require.NotContains(t, h.mailer.sent[0].HTMLBody, "<li></li>")
}
