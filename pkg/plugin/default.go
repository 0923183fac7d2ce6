package plugin

import (
	"maps"
	"sync"
)

// DefaultClass is the snapshot class identifier for Default.
const DefaultClass = "DefaultDataStructure"

// Default is the in-memory plugin for predicates without specialized
// requirements: a plain subject -> value map, SPO only.
type Default struct {
	mu     sync.RWMutex
	config Config
	data   map[string]any
}

var _ Plugin = (*Default)(nil)

// NewDefault creates an empty default plugin.
func NewDefault() *Default {
	return &Default{
		config: Config{},
		data:   make(map[string]any),
	}
}

// Configure stores the configuration; the default plugin has no settings to
// validate.
func (d *Default) Configure(cfg Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cfg == nil {
		cfg = Config{}
	}
	d.config = cfg
	return nil
}

// Capabilities declares SPO only.
func (d *Default) Capabilities() []Capability {
	return []Capability{CapSPO}
}

// Get returns the value stored for subject.
func (d *Default) Get(subject string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.data[subject]
	return v, ok
}

// Set stores a subject -> value pair.
func (d *Default) Set(subject string, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data[subject] = value
	return nil
}

// Delete removes a subject, reporting whether it existed.
func (d *Default) Delete(subject string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.data[subject]; !ok {
		return false
	}
	delete(d.data, subject)
	return true
}

// Contains reports whether subject currently holds value, by equality.
func (d *Default) Contains(subject string, value any) bool {
	current, ok := d.Get(subject)
	return ok && current == value
}

// FindSubjects is unsupported: the default plugin does not declare CapPOS.
func (d *Default) FindSubjects(value any) ([]string, error) {
	return nil, &UnsupportedOperationError{Plugin: DefaultClass, Op: "find_subjects (POS)"}
}

// HealthCheck reports ok with the subject count.
func (d *Default) HealthCheck() Health {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Health{
		Status: "ok",
		Plugin: DefaultClass,
		Config: d.config,
		Metrics: map[string]float64{
			"subject_count": float64(len(d.data)),
		},
	}
}

// Snapshot captures the subject map.
func (d *Default) Snapshot() (Snapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data := make(map[string]any, len(d.data))
	maps.Copy(data, d.data)
	return Snapshot{
		PluginClass: DefaultClass,
		Config:      d.config,
		Data:        data,
	}, nil
}

// RestoreSnapshot replaces state from a snapshot envelope.
func (d *Default) RestoreSnapshot(snap Snapshot) error {
	if snap.PluginClass != DefaultClass {
		return &SnapshotMismatchError{Want: DefaultClass, Got: snap.PluginClass}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = snap.Config
	if d.config == nil {
		d.config = Config{}
	}
	d.data = make(map[string]any, len(snap.Data))
	maps.Copy(d.data, snap.Data)
	return nil
}
