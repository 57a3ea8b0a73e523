package watcher

// ChangeAnalysis describes which builds need to be reloaded
type ChangeAnalysis struct {
	ReloadPrevious bool
	ReloadCurrent  bool
	ChangedFiles   []string
}

// NeedsReload reports whether any build changed
func (a ChangeAnalysis) NeedsReload() bool {
	return a.ReloadPrevious || a.ReloadCurrent
}

// AnalyzeChanges folds a batch of debounced events into the set of builds to reload
func AnalyzeChanges(events ...ChangeEvent) ChangeAnalysis {
	var analysis ChangeAnalysis
	for _, event := range events {
		switch event.Type {
		case ChangeTypePrevious:
			analysis.ReloadPrevious = true
		case ChangeTypeCurrent:
			analysis.ReloadCurrent = true
		}
		analysis.ChangedFiles = appendNew(analysis.ChangedFiles, event.Paths...)
	}
	return analysis
}
