package model

// TranscriptionResult is the response of the transcribe endpoint: the
// transcript, its categorization, the created note and extracted todos.
type TranscriptionResult struct {
	NoteID        int      `json:"note_id" yaml:"note_id"`
	Transcription string   `json:"transcription" yaml:"transcription"`
	Title         string   `json:"title" yaml:"title"`
	FolderPath    string   `json:"folder_path" yaml:"folder_path"`
	Filename      string   `json:"filename" yaml:"filename"`
	Tags          []string `json:"tags" yaml:"tags"`
	Confidence    float64  `json:"confidence" yaml:"confidence"`
	Reasoning     string   `json:"reasoning" yaml:"reasoning"`
	Todos         []Todo   `json:"todos" yaml:"todos"`
}

// SuggestedTodos returns the extracted todos still awaiting acceptance.
func (r TranscriptionResult) SuggestedTodos() []Todo {
	var out []Todo
	for _, t := range r.Todos {
		if t.Status == TodoSuggested {
			out = append(out, t)
		}
	}
	return out
}
