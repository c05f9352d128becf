package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfr/internal/domain"
	"rfr/internal/engine"
)

func TestCommandStep_Run(t *testing.T) {
	tests := []struct {
		name     string
		step     CommandStep
		wantErr  bool
		expected any
		actual   any
	}{
		{
			name: "success",
			step: CommandStep{Command: "echo hello"},
		},
		{
			name: "output matches",
			step: CommandStep{Command: "expr 1 + 1", ExpectOutput: "2"},
		},
		{
			name:     "output mismatch",
			step:     CommandStep{Command: "echo 3", ExpectOutput: "2"},
			wantErr:  true,
			expected: "2",
			actual:   "3",
		},
		{
			name:     "unexpected exit code",
			step:     CommandStep{Command: "echo boom; exit 3"},
			wantErr:  true,
			expected: 0,
			actual:   3,
		},
		{
			name: "expected exit code",
			step: CommandStep{Command: "exit 2", ExpectExit: 2},
		},
		{
			name: "env is passed",
			step: CommandStep{Command: "echo $RFR_STEP_VALUE", Env: []string{"RFR_STEP_VALUE=42"}, ExpectOutput: "42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Run(context.Background())
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var assertErr *engine.AssertionError
			require.ErrorAs(t, err, &assertErr)
			assert.Equal(t, tt.expected, assertErr.Expected)
			assert.Equal(t, tt.actual, assertErr.Actual)
		})
	}
}

func TestCommandStep_Dir(t *testing.T) {
	dir := t.TempDir()
	step := &CommandStep{Command: "pwd", Dir: dir, ExpectOutput: dir}
	assert.NoError(t, step.Run(context.Background()))
}

func TestCommandStep_Deadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := (&CommandStep{Command: "sleep 5"}).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}

type fakeDB struct {
	execs  []string
	values map[string]string
	err    error
}

func (f *fakeDB) Exec(_ context.Context, query string) error {
	if f.err != nil {
		return f.err
	}
	f.execs = append(f.execs, query)
	return nil
}

func (f *fakeDB) QueryValue(_ context.Context, query string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.values[query], nil
}

func TestSQLStep_Run(t *testing.T) {
	three := "3"
	db := &fakeDB{values: map[string]string{"SELECT COUNT(*) FROM t": "3", "SELECT 2": "2"}}

	require.NoError(t, (&SQLStep{Query: "DELETE FROM t", DB: db}).Run(context.Background()))
	assert.Equal(t, []string{"DELETE FROM t"}, db.execs)

	require.NoError(t, (&SQLStep{Query: "SELECT COUNT(*) FROM t", Expect: &three, DB: db}).Run(context.Background()))

	err := (&SQLStep{Query: "SELECT 2", Expect: &three, DB: db}).Run(context.Background())
	var assertErr *engine.AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "3", assertErr.Expected)
	assert.Equal(t, "2", assertErr.Actual)
	assert.Equal(t, "expected 3, got 2", err.Error())

	broken := &fakeDB{err: errors.New("connection refused")}
	assert.EqualError(t, (&SQLStep{Query: "SELECT 1", DB: broken}).Run(context.Background()), "connection refused")
	assert.Error(t, (&SQLStep{Query: "SELECT 1"}).Run(context.Background()))
}

func TestSequence_StopsAtFirstFailure(t *testing.T) {
	seq := Sequence{
		&CommandStep{Command: "true"},
		&CommandStep{Command: "echo nope", ExpectOutput: "yes"},
		&CommandStep{Command: "exit 1"},
	}

	err := seq.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2 (run: echo nope)")

	var assertErr *engine.AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "yes", assertErr.Expected)
}

func TestSequence_InEngine(t *testing.T) {
	r := engine.NewRunner()
	r.Describe("shell", func(s *engine.Suite) {
		s.It("passes", Sequence{&CommandStep{Command: "echo ok", ExpectOutput: "ok"}}.Run)
		s.It("fails", Sequence{&CommandStep{Command: "echo 1", ExpectOutput: "2"}}.Run)
		s.It("hangs", Sequence{&CommandStep{Command: "sleep 5"}}.Run, engine.Timeout(100*time.Millisecond))
	})

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	tests := report.Suites[0].Tests
	assert.Equal(t, domain.StatusPassed, tests[0].Status)
	require.NotNil(t, tests[1].Failure)
	assert.Equal(t, domain.FailureAssertion, tests[1].Failure.Type)
	assert.Equal(t, "2", tests[1].Failure.Expected)
	require.NotNil(t, tests[2].Failure)
	assert.Equal(t, domain.FailureTimeout, tests[2].Failure.Type)
}
