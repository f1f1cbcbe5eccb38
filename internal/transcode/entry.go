package transcode

// Entry is one flattened secret: its path in the document and its textual
// value, independent of the type it will be written back as.
type Entry struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}
