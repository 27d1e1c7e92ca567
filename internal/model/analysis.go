package model

import "time"

// AnalysisResult is one cached text analysis of a stored file (the subject).
// When IsError is set the counts are zero and ErrorMessage explains why the
// subject could not be analyzed.
type AnalysisResult struct {
	ID             string    `json:"id"`
	SubjectID      string    `json:"file_id"`
	FileName       string    `json:"file_name"`
	ParagraphCount int       `json:"paragraph_count"`
	WordCount      int       `json:"word_count"`
	CharacterCount int       `json:"character_count"`
	CreatedAt      time.Time `json:"analysis_date"`
	IsError        bool      `json:"is_error"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}
