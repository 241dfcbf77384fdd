package domain

import "time"

// Candidate represents a person under evaluation. A candidate record is
// immutable once created, except for appending interview minutes.
type Candidate struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Age          int       `json:"age,omitempty"`
	Education    string    `json:"education,omitempty"`
	University   string    `json:"university,omitempty"`
	Experience   string    `json:"experience,omitempty"`
	SelfPR       string    `json:"selfPr,omitempty"`
	AppliedAt    time.Time `json:"appliedAt"`
	JobType      string    `json:"jobType"`
	InterviewLog string    `json:"interviewLog,omitempty"`

	// Optional structured attachments
	ResumeText        string              `json:"resumeText,omitempty"`
	CareerHistoryText string              `json:"careerHistoryText,omitempty"`
	AptitudeTest      *AptitudeTestResult `json:"aptitudeTest,omitempty"`
	InterviewMinutes  []InterviewMinutes  `json:"interviewMinutes,omitempty"`
}

// AptitudeTestResult holds a summary of an SPI-style aptitude test.
type AptitudeTestResult struct {
	LanguageScore      int       `json:"languageScore"`
	NonLanguageScore   int       `json:"nonLanguageScore"`
	TotalScore         int       `json:"totalScore"`
	PersonalitySummary string    `json:"personalitySummary,omitempty"`
	TakenAt            time.Time `json:"takenAt"`
}

// InterviewMinutes is one recorded interview session with a candidate.
type InterviewMinutes struct {
	ID          string    `json:"id"`
	Interviewer string    `json:"interviewer"`
	HeldAt      time.Time `json:"heldAt"`
	QAPairs     []QAPair  `json:"qaPairs,omitempty"`
	KeyInsights []string  `json:"keyInsights,omitempty"`
}

// QAPair is a single question and answer from an interview.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// JobPosting describes the position a candidate applied for.
type JobPosting struct {
	Title            string `json:"title"`
	Requirements     string `json:"requirements,omitempty"`
	Responsibilities string `json:"responsibilities,omitempty"`
	Conditions       string `json:"conditions,omitempty"`
	CareerPath       string `json:"careerPath,omitempty"`
}

// AppendMinutes returns a copy of the candidate with the minutes appended.
// The receiver is not modified; candidates are otherwise immutable.
func (c Candidate) AppendMinutes(m InterviewMinutes) Candidate {
	minutes := make([]InterviewMinutes, len(c.InterviewMinutes), len(c.InterviewMinutes)+1)
	copy(minutes, c.InterviewMinutes)
	c.InterviewMinutes = append(minutes, m)
	return c
}
