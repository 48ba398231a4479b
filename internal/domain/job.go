package domain

// Job represents a normalized job posting from any source
type Job struct {
	JobID    string `json:"job_id"`
	Title    string `json:"title"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
	Salary   string `json:"salary,omitempty"`
	URL      string `json:"url"`
	Source   string `json:"source"`
	Level    string `json:"level"`
	AIFocus  bool   `json:"ai_focus"`
	Posted   string `json:"posted,omitempty"`
	// DaysAgo is nil when the source exposed no usable posting date
	DaysAgo  *int   `json:"days_ago"`
	JDText   string `json:"jd_text,omitempty"`
}

// RawCard represents raw extracted card data before enrichment
type RawCard struct {
	JobID      string `json:"job_id"`
	Title      string `json:"title"`
	Company    string `json:"company,omitempty"`
	Location   string `json:"location,omitempty"`
	Salary     string `json:"salary,omitempty"`
	URL        string `json:"url"`
	PostedText string `json:"posted_text,omitempty"`
}

// JobSource represents a job listing source
type JobSource string

const (
	SourceLinkedIn     JobSource = "linkedin"
	SourceJobsCZ       JobSource = "jobs.cz"
	SourceStartupJobs  JobSource = "startupjobs.cz"
	SourceEURemoteJobs JobSource = "euremotejobs.com"
)
