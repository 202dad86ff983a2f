package sessions

// Repo defines durable storage for the session values, addressed by the fixed key names.
type Repo interface {
	// Load returns every stored value. A repo with nothing stored returns an empty map.
	Load() (map[string]string, error)

	// Save replaces all stored values in a single write
	Save(values map[string]string) error

	// Clear removes all stored values
	Clear() error
}
