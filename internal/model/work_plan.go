package model

// WorkUnit is one section of a run: the course root or one of its subfolders.
type WorkUnit struct {
	Name       string
	SourcePath string
	MediaFiles []string // Basenames, sorted.
}

// WorkPlan is the ordered list of units for a run. A synthetic root unit,
// when present, is always first.
type WorkPlan struct {
	Course string // Display name of the course (base name of the root dir).
	Root   string
	Units  []WorkUnit
}

// MediaCount returns the number of media files across all units.
func (p WorkPlan) MediaCount() int {
	n := 0
	for _, u := range p.Units {
		n += len(u.MediaFiles)
	}
	return n
}

// Credentials identify the application to the remote endpoint.
type Credentials struct {
	APIID   int
	APIHash string
}

// VideoUpload describes a single video message.
type VideoUpload struct {
	Path              string
	Caption           string
	ThumbPath         string // Empty when no preview is attached.
	Width             int
	Height            int
	SupportsStreaming bool
}
