package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"unicare-bulksubmit/core/runner"
)

var ErrRunNotFound = errors.New("run not found")

// Store keeps run history in LevelDB. Outcomes live under
// run:<runID>:<iteration, zero padded> so a prefix scan returns one run in
// iteration order.
type Store struct {
	db     *leveldb.DB
	sealer *sealer
}

type Option func(*Store) error

// WithEncryption seals every stored value with dek (32 bytes).
func WithEncryption(dek []byte) Option {
	return func(s *Store) error {
		sl, err := newSealer(dek)
		if err != nil {
			return fmt.Errorf("init encryption: %w", err)
		}
		s.sealer = sl
		return nil
	}
}

func Open(path string, opts ...Option) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	s := &Store{db: db}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func outcomeKey(runID string, iteration int) []byte {
	return []byte(fmt.Sprintf("run:%s:%06d", runID, iteration))
}

func (s *Store) encode(o runner.Outcome) ([]byte, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	if s.sealer != nil {
		return s.sealer.seal(data)
	}
	return data, nil
}

func (s *Store) decode(value []byte) (runner.Outcome, error) {
	var o runner.Outcome
	if s.sealer != nil {
		plain, err := s.sealer.open(value)
		if err != nil {
			return o, fmt.Errorf("decrypt outcome: %w", err)
		}
		value = plain
	}
	err := json.Unmarshal(value, &o)
	return o, err
}

// SaveOutcome implements runner.Recorder.
func (s *Store) SaveOutcome(o runner.Outcome) error {
	data, err := s.encode(o)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	return s.db.Put(outcomeKey(o.RunID, o.Iteration), data, nil)
}

// LoadRun returns the outcomes of one run in iteration order.
func (s *Store) LoadRun(runID string) ([]runner.Outcome, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte("run:"+runID+":")), nil)
	defer iter.Release()

	var out []runner.Outcome
	for iter.Next() {
		o, err := s.decode(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrRunNotFound
	}
	return out, nil
}

type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Passed    int
	Failed    int
	Pattern   string
}

// ListRuns summarizes every stored run, oldest first.
func (s *Store) ListRuns() ([]RunSummary, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte("run:")), nil)
	defer iter.Release()

	byRun := make(map[string][]runner.Outcome)
	for iter.Next() {
		parts := strings.SplitN(string(iter.Key()), ":", 3)
		if len(parts) != 3 {
			continue
		}
		o, err := s.decode(iter.Value())
		if err != nil {
			return nil, err
		}
		byRun[parts[1]] = append(byRun[parts[1]], o)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	runs := make([]RunSummary, 0, len(byRun))
	for id, outcomes := range byRun {
		rs := RunSummary{RunID: id, StartedAt: outcomes[0].Timestamp, Pattern: runner.Pattern(outcomes)}
		for _, o := range outcomes {
			if o.OK {
				rs.Passed++
			} else {
				rs.Failed++
			}
		}
		runs = append(runs, rs)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].RunID < runs[j].RunID
		}
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
	return runs, nil
}
