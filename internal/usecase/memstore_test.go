package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"repairdesk/internal/domain/repair"
	"repairdesk/internal/domain/sla"
	"repairdesk/internal/domain/workflow"
)

// memStore implements Store over plain maps. WithinTx snapshots the state on
// entry and restores it when fn fails, which is enough transactionality to
// test the rollback-sensitive paths.
type memStore struct {
	mu        sync.Mutex
	cases     map[string]repair.Case
	defs      map[string]workflow.Definition
	configs   []workflow.Configuration
	instances map[string]workflow.Instance
	history   []workflow.HistoryEntry
	slas      map[string]sla.Record
	devices   map[string]string
	tiers     map[string]string
	nextID    int

	failSLACreate error
	failBreach    map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		cases:     map[string]repair.Case{},
		defs:      map[string]workflow.Definition{},
		instances: map[string]workflow.Instance{},
		slas:      map[string]sla.Record{},
		devices:   map[string]string{},
		tiers:     map[string]string{},
	}
}

func (m *memStore) newID() string {
	m.nextID++
	return fmt.Sprintf("id-%d", m.nextID)
}

func (m *memStore) Repos() Repositories {
	return Repositories{
		Cases:          &memCaseRepo{m},
		Definitions:    &memDefinitionRepo{m},
		Configurations: &memConfigurationRepo{m},
		Instances:      &memInstanceRepo{m},
		History:        &memHistoryRepo{m},
		SLAs:           &memSLARepo{m},
		Lookups:        &memLookupRepo{m},
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	snap := m.snapshot()
	if err := fn(m.Repos()); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	cases     map[string]repair.Case
	defs      map[string]workflow.Definition
	configs   []workflow.Configuration
	instances map[string]workflow.Instance
	history   []workflow.HistoryEntry
	slas      map[string]sla.Record
	nextID    int
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := memSnapshot{
		cases:     make(map[string]repair.Case, len(m.cases)),
		defs:      make(map[string]workflow.Definition, len(m.defs)),
		configs:   append([]workflow.Configuration(nil), m.configs...),
		instances: make(map[string]workflow.Instance, len(m.instances)),
		history:   append([]workflow.HistoryEntry(nil), m.history...),
		slas:      make(map[string]sla.Record, len(m.slas)),
		nextID:    m.nextID,
	}
	for k, v := range m.cases {
		snap.cases[k] = v
	}
	for k, v := range m.defs {
		snap.defs[k] = v
	}
	for k, v := range m.instances {
		snap.instances[k] = v
	}
	for k, v := range m.slas {
		snap.slas[k] = v
	}
	return snap
}

func (m *memStore) restore(snap memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases = snap.cases
	m.defs = snap.defs
	m.configs = snap.configs
	m.instances = snap.instances
	m.history = snap.history
	m.slas = snap.slas
	m.nextID = snap.nextID
}

// seed helpers

func (m *memStore) seedDevice(deviceID, deviceTypeID string) {
	m.devices[deviceID] = deviceTypeID
}

func (m *memStore) seedCustomer(customerID, tier string) {
	m.tiers[customerID] = tier
}

func (m *memStore) seedDefinition(def workflow.Definition) workflow.Definition {
	if def.ID == "" {
		def.ID = m.newID()
	}
	for i := range def.Steps {
		if def.Steps[i].ID == "" {
			def.Steps[i].ID = m.newID()
		}
		def.Steps[i].DefinitionID = def.ID
	}
	m.defs[def.ID] = def
	return def
}

func (m *memStore) seedConfiguration(cfg workflow.Configuration) workflow.Configuration {
	if cfg.ID == 0 {
		cfg.ID = int64(len(m.configs) + 1)
	}
	m.configs = append(m.configs, cfg)
	return cfg
}

type memCaseRepo struct{ s *memStore }

func (r *memCaseRepo) Create(ctx context.Context, c repair.Case) (repair.Case, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.cases {
		if existing.CaseNumber == c.CaseNumber {
			return repair.Case{}, repair.ErrConflict
		}
	}
	c.ID = r.s.newID()
	r.s.cases[c.ID] = c
	return c, nil
}

func (r *memCaseRepo) Get(ctx context.Context, caseID string) (repair.Case, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cases[caseID]
	if !ok {
		return repair.Case{}, repair.ErrNotFound
	}
	return c, nil
}

func (r *memCaseRepo) List(ctx context.Context, filter CaseListFilter) ([]repair.Case, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []repair.Case
	for _, c := range r.s.cases {
		if filter.Status != "" && string(c.Status) != filter.Status {
			continue
		}
		if filter.Priority != "" && string(c.Priority) != filter.Priority {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memCaseRepo) AttachWorkflow(ctx context.Context, caseID, instanceID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cases[caseID]
	if !ok {
		return repair.ErrNotFound
	}
	c.WorkflowInstanceID = &instanceID
	r.s.cases[caseID] = c
	return nil
}

func (r *memCaseRepo) AttachSLA(ctx context.Context, caseID, slaID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cases[caseID]
	if !ok {
		return repair.ErrNotFound
	}
	c.SLAID = &slaID
	r.s.cases[caseID] = c
	return nil
}

type memDefinitionRepo struct{ s *memStore }

func (r *memDefinitionRepo) Create(ctx context.Context, def workflow.Definition) (workflow.Definition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	def.ID = r.s.newID()
	for i := range def.Steps {
		def.Steps[i].ID = r.s.newID()
		def.Steps[i].DefinitionID = def.ID
	}
	r.s.defs[def.ID] = def
	return def, nil
}

func (r *memDefinitionRepo) Get(ctx context.Context, definitionID string) (workflow.Definition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	def, ok := r.s.defs[definitionID]
	if !ok {
		return workflow.Definition{}, repair.ErrNotFound
	}
	return def, nil
}

type memConfigurationRepo struct{ s *memStore }

func (r *memConfigurationRepo) Create(ctx context.Context, cfg workflow.Configuration) (workflow.Configuration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cfg.ID = int64(len(r.s.configs) + 1)
	r.s.configs = append(r.s.configs, cfg)
	return cfg, nil
}

func (r *memConfigurationRepo) List(ctx context.Context) ([]workflow.Configuration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]workflow.Configuration(nil), r.s.configs...), nil
}

func (r *memConfigurationRepo) ListCandidates(ctx context.Context, serviceType string) ([]workflow.Configuration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []workflow.Configuration
	for _, cfg := range r.s.configs {
		if !cfg.IsActive || cfg.ServiceType != serviceType {
			continue
		}
		if def, ok := r.s.defs[cfg.DefinitionID]; !ok || !def.IsActive {
			continue
		}
		out = append(out, cfg)
	}
	return out, nil
}

type memInstanceRepo struct{ s *memStore }

func (r *memInstanceRepo) Create(ctx context.Context, inst workflow.Instance) (workflow.Instance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.instances {
		if existing.CaseID == inst.CaseID && existing.Status == workflow.StatusRunning {
			return workflow.Instance{}, repair.ErrConflict
		}
	}
	inst.ID = r.s.newID()
	r.s.instances[inst.ID] = inst
	return inst, nil
}

func (r *memInstanceRepo) Get(ctx context.Context, instanceID string) (workflow.Instance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inst, ok := r.s.instances[instanceID]
	if !ok {
		return workflow.Instance{}, repair.ErrNotFound
	}
	return inst, nil
}

func (r *memInstanceRepo) GetByCase(ctx context.Context, caseID string) (workflow.Instance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inst := range r.s.instances {
		if inst.CaseID == caseID {
			return inst, nil
		}
	}
	return workflow.Instance{}, repair.ErrNotFound
}

func (r *memInstanceRepo) AdvanceStep(ctx context.Context, instanceID, fromStepID, toStepID string, variables map[string]any) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inst, ok := r.s.instances[instanceID]
	if !ok || inst.Status != workflow.StatusRunning || inst.CurrentStepID != fromStepID {
		return false, nil
	}
	inst.CurrentStepID = toStepID
	inst.Variables = variables
	r.s.instances[instanceID] = inst
	return true, nil
}

func (r *memInstanceRepo) Complete(ctx context.Context, instanceID, fromStepID string, variables map[string]any, completedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inst, ok := r.s.instances[instanceID]
	if !ok || inst.Status != workflow.StatusRunning || inst.CurrentStepID != fromStepID {
		return false, nil
	}
	inst.Status = workflow.StatusCompleted
	inst.Variables = variables
	inst.CompletedAt = &completedAt
	r.s.instances[instanceID] = inst
	return true, nil
}

func (r *memInstanceRepo) Cancel(ctx context.Context, instanceID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inst, ok := r.s.instances[instanceID]
	if !ok || inst.Status != workflow.StatusRunning {
		return false, nil
	}
	now := time.Now()
	inst.Status = workflow.StatusCancelled
	inst.CompletedAt = &now
	r.s.instances[instanceID] = inst
	return true, nil
}

type memHistoryRepo struct{ s *memStore }

func (r *memHistoryRepo) Append(ctx context.Context, entry workflow.HistoryEntry) (workflow.HistoryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = r.s.newID()
	r.s.history = append(r.s.history, entry)
	return entry, nil
}

func (r *memHistoryRepo) ListByInstance(ctx context.Context, instanceID string) ([]workflow.HistoryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []workflow.HistoryEntry
	for _, entry := range r.s.history {
		if entry.InstanceID == instanceID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type memSLARepo struct{ s *memStore }

func (r *memSLARepo) Create(ctx context.Context, record sla.Record) (sla.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSLACreate != nil {
		return sla.Record{}, r.s.failSLACreate
	}
	record.ID = r.s.newID()
	r.s.slas[record.ID] = record
	return record, nil
}

func (r *memSLARepo) Get(ctx context.Context, slaID string) (sla.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	record, ok := r.s.slas[slaID]
	if !ok {
		return sla.Record{}, repair.ErrNotFound
	}
	return record, nil
}

func (r *memSLARepo) ListOpen(ctx context.Context) ([]sla.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []sla.Record
	for _, record := range r.s.slas {
		if c, ok := r.s.cases[record.CaseID]; ok && c.Status.Terminal() {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (r *memSLARepo) MarkBreached(ctx context.Context, slaID string) (int, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err, ok := r.s.failBreach[slaID]; ok {
		return 0, false, err
	}
	record, ok := r.s.slas[slaID]
	if !ok {
		return 0, false, repair.ErrNotFound
	}
	if record.IsBreached {
		return 0, false, nil
	}
	record.IsBreached = true
	record.EscalationLevel++
	r.s.slas[slaID] = record
	return record.EscalationLevel, true, nil
}

func (r *memSLARepo) MarkWarningSent(ctx context.Context, slaID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	record, ok := r.s.slas[slaID]
	if !ok {
		return false, repair.ErrNotFound
	}
	if record.WarningSent {
		return false, nil
	}
	record.WarningSent = true
	r.s.slas[slaID] = record
	return true, nil
}

type memLookupRepo struct{ s *memStore }

func (r *memLookupRepo) DeviceTypeID(ctx context.Context, deviceID string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	deviceType, ok := r.s.devices[deviceID]
	if !ok {
		return "", repair.ErrNotFound
	}
	return deviceType, nil
}

func (r *memLookupRepo) CustomerTier(ctx context.Context, customerID string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tier, ok := r.s.tiers[customerID]
	if !ok {
		return "", repair.ErrNotFound
	}
	return tier, nil
}
