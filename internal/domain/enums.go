package domain

type ProjectStatus string

const (
	ProjectPlanning ProjectStatus = "planning"
	ProjectLive     ProjectStatus = "live"
	ProjectDisabled ProjectStatus = "disabled"
)

// ValidProjectStatuses is the canonical set of accepted status strings.
var ValidProjectStatuses = map[string]bool{
	"planning": true, "live": true, "disabled": true,
}

func (s ProjectStatus) Valid() bool {
	return ValidProjectStatuses[string(s)]
}
