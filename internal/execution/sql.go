package execution

import (
	"context"
	"fmt"
	"strings"

	"rfr/internal/engine"
)

// Querier is the database surface sql steps need. *database.Manager implements it.
type Querier interface {
	Exec(ctx context.Context, query string) error
	QueryValue(ctx context.Context, query string) (string, error)
}

// SQLStep runs a query. With Expect set, the first column of the first row must equal it.
type SQLStep struct {
	Query  string
	Expect *string
	DB     Querier
}

func (s *SQLStep) String() string {
	return "sql: " + s.Query
}

// Run executes the query
func (s *SQLStep) Run(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("no database configured for %q", s.Query)
	}
	if s.Expect == nil {
		return s.DB.Exec(ctx, s.Query)
	}

	got, err := s.DB.QueryValue(ctx, s.Query)
	if err != nil {
		return err
	}
	if strings.TrimSpace(got) != strings.TrimSpace(*s.Expect) {
		return engine.NewAssertionError("", *s.Expect, got)
	}
	return nil
}
