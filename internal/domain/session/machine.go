package session

import (
	"errors"
	"sync"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePending Phase = "pending"
	PhaseSettled Phase = "settled"
)

var (
	// ErrBusy is returned when a submission arrives while one is pending.
	ErrBusy = errors.New("analysis already in progress")
	// ErrStale is returned when an outcome arrives for a superseded submission.
	ErrStale = errors.New("stale analysis outcome")
	// ErrEmptyOutcome is returned when an outcome has neither result nor error.
	ErrEmptyOutcome = errors.New("outcome carries neither result nor error")
)

// Snapshot is a copy of the machine state safe to hand to renderers.
type Snapshot struct {
	Phase   Phase
	Seq     uint64
	Request *analysis.Request
	Result  *analysis.Result
	Err     error
}

// Machine tracks one user's submissions. At most one request is pending at a
// time and a settled state holds exactly one of Result or Err.
type Machine struct {
	mu      sync.Mutex
	phase   Phase
	seq     uint64
	request *analysis.Request
	result  *analysis.Result
	err     error
}

func NewMachine() *Machine {
	return &Machine{phase: PhaseIdle}
}

// Submit moves the machine to pending and clears the previous outcome. The
// returned ticket must be passed back to Arrive.
func (m *Machine) Submit(req analysis.Request) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhasePending {
		return 0, ErrBusy
	}
	m.seq++
	r := req
	m.request = &r
	m.result = nil
	m.err = nil
	m.phase = PhasePending
	return m.seq, nil
}

// Arrive settles the pending submission identified by ticket.
func (m *Machine) Arrive(ticket uint64, res *analysis.Result, err error) error {
	if res == nil && err == nil {
		return ErrEmptyOutcome
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhasePending || ticket != m.seq {
		return ErrStale
	}
	if err != nil {
		m.result, m.err = nil, err
	} else {
		m.result, m.err = res, nil
	}
	m.phase = PhaseSettled
	return nil
}

// Cancel drops a pending submission without an outcome and returns to idle.
func (m *Machine) Cancel(ticket uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhasePending && ticket == m.seq {
		m.phase = PhaseIdle
		m.request = nil
	}
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Phase:   m.phase,
		Seq:     m.seq,
		Request: m.request,
		Result:  m.result,
		Err:     m.err,
	}
}
