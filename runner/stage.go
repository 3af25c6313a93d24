package runner

// Stage is a step of a run. Stages execute in declaration order; StageFailed is
// reachable from any stage before StageDone.
type Stage int

const (
	StageInit Stage = iota
	StageFiltering
	StageSiteFetch
	StageSubnetFetch
	StageIndexBuild
	StageUserClassify
	StagePrinterClassify
	StageReporting
	StageMailing
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StageInit:            "Init",
	StageFiltering:       "Filtering",
	StageSiteFetch:       "SiteFetch",
	StageSubnetFetch:     "SubnetFetch",
	StageIndexBuild:      "IndexBuild",
	StageUserClassify:    "UserClassify",
	StagePrinterClassify: "PrinterClassify",
	StageReporting:       "Reporting",
	StageMailing:         "Mailing",
	StageDone:            "Done",
	StageFailed:          "Failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Unknown"
	}
	return stageNames[s]
}

// StageError is the failure of one stage. Its message is the message of the
// underlying error, unchanged, since that text is mailed to the administrator.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
