package workflow

import "github.com/google/uuid"

// liveSuffixLen keeps live event names inside the service's length limit.
const liveSuffixLen = 13

// Uniqueness returns a time-based UUID string.
func Uniqueness() string {
	id, err := uuid.NewUUID()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Names are the per-run resource names of the analyze and encrypt workflows.
type Names struct {
	Job     string
	Locator string
	Output  string
	Input   string
}

func NewNames(uniqueness string) Names {
	return Names{
		Job:     "job-" + uniqueness,
		Locator: "locator-" + uniqueness,
		Output:  "output-" + uniqueness,
		Input:   "input-" + uniqueness,
	}
}

// LiveNames are the per-run resource names of the live workflow.
type LiveNames struct {
	Event   string
	Asset   string
	Output  string
	Locator string
}

func NewLiveNames(uniqueness string) LiveNames {
	if len(uniqueness) > liveSuffixLen {
		uniqueness = uniqueness[:liveSuffixLen]
	}
	return LiveNames{
		Event:   "liveevent-" + uniqueness,
		Asset:   "archiveasset-" + uniqueness,
		Output:  "liveoutput-" + uniqueness,
		Locator: "streaminglocator-" + uniqueness,
	}
}
