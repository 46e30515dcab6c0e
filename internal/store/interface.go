package store

// StoreState represents the condition of the persisted data.
type StoreState int

const (
	StateMissing         StoreState = iota // File doesn't exist
	StateUninitialized                     // File exists but holds no usable schema or document
	StateVersionMismatch                   // Schema exists but wrong version
	StateReady                             // Readable and correct version
)

func (s StoreState) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StateUninitialized:
		return "uninitialized"
	case StateVersionMismatch:
		return "version mismatch"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Snapshot is the whole persisted state: every contact in store order
// plus the next identifier to assign.
type Snapshot struct {
	Contacts []Contact `json:"contacts"`
	NextID   int       `json:"nextId"`
}

// Backend persists a Snapshot as one unit.
// Implementations need not be safe for concurrent use; Store serializes calls.
type Backend interface {
	// Load returns the persisted snapshot. A missing file yields an empty
	// snapshot with NextID 1 and no error.
	Load() (Snapshot, error)

	// Save replaces the persisted snapshot.
	Save(snap Snapshot) error

	// CheckState reports the condition of the persisted data without loading it into a store.
	CheckState() (StoreState, error)

	// Path returns the location of the persisted data.
	Path() string

	// Close releases any resources held by the backend.
	Close() error
}
