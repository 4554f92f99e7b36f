package model

// FolderNode is one node of the folder tree. Paths are slash-delimited and
// unique per tree position; the root carries no parent reference.
type FolderNode struct {
	Name       string       `json:"name" yaml:"name"`
	Path       string       `json:"path" yaml:"path"`
	NoteCount  int          `json:"note_count" yaml:"note_count"`
	Subfolders []FolderNode `json:"subfolders" yaml:"subfolders,omitempty"`
}

// FolderTree is the response of the folders endpoint.
type FolderTree struct {
	Folders []FolderNode `json:"folders" yaml:"folders"`
}

// Walk visits every node depth-first, passing its depth. Returning false
// from fn skips the node's children.
func Walk(nodes []FolderNode, fn func(node FolderNode, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []FolderNode, depth int, fn func(FolderNode, int) bool) {
	for _, n := range nodes {
		if fn(n, depth) {
			walk(n.Subfolders, depth+1, fn)
		}
	}
}

// FindFolder returns the node with the given path.
func FindFolder(nodes []FolderNode, path string) (FolderNode, bool) {
	var found FolderNode
	ok := false
	Walk(nodes, func(n FolderNode, _ int) bool {
		if ok {
			return false
		}
		if n.Path == path {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}
