package grabber

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sig-0/fxgrab/storage/types"
)

// CheckerTable maps every known currency to its acceptable check tokens.
// It is built from the currency reference on first use, and is read-only after that.
// A single table is meant to be shared by all strategies of a process
type CheckerTable struct {
	reference CurrencyReference

	tokens     map[int64][]string
	currencies map[int64]types.CurrencyInfo
	owners     map[string]int64 // token -> first currency (by ID) that lists it

	built bool
	mu    sync.Mutex
}

// NewCheckerTable creates a new (unbuilt) checker table over the given reference
func NewCheckerTable(reference CurrencyReference) *CheckerTable {
	return &CheckerTable{
		reference: reference,
	}
}

// load builds the table, if it hasn't been built yet.
// Neither a failed read nor an empty reference is remembered,
// the next call reads the reference again
func (t *CheckerTable) load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.built {
		return nil
	}

	currencies, err := t.reference.Currencies(ctx)
	if err != nil {
		return fmt.Errorf("unable to load currency reference: %w", err)
	}

	var (
		tokens = make(map[int64][]string, len(currencies))
		infos  = make(map[int64]types.CurrencyInfo, len(currencies))
		owners = make(map[string]int64)
	)

	for _, c := range currencies {
		// A repeated ID extends the token set, the same way aliases do
		tokens[c.ID] = append(tokens[c.ID], c.Tokens()...)

		if _, ok := infos[c.ID]; !ok {
			infos[c.ID] = c
		}
	}

	ids := make([]int64, 0, len(tokens))
	for id := range tokens {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	for _, id := range ids {
		for _, token := range tokens[id] {
			if token == "" {
				continue
			}

			if _, taken := owners[token]; !taken {
				owners[token] = id
			}
		}
	}

	t.tokens = tokens
	t.currencies = infos
	t.owners = owners
	t.built = len(currencies) > 0

	return nil
}

// Tokens returns the acceptable tokens for the given currency
func (t *CheckerTable) Tokens(ctx context.Context, id int64) ([]string, bool, error) {
	if err := t.load(ctx); err != nil {
		return nil, false, err
	}

	tokens, ok := t.tokens[id]

	return tokens, ok, nil
}

// Matches checks if the token is acceptable for the given currency
func (t *CheckerTable) Matches(ctx context.Context, id int64, token string) (bool, error) {
	tokens, ok, err := t.Tokens(ctx, id)
	if err != nil {
		return false, err
	}

	return ok && slices.Contains(tokens, token), nil
}

// Identify returns the currency that lists the given token.
// When several currencies share a token, the lowest ID wins
func (t *CheckerTable) Identify(ctx context.Context, token string) (int64, bool, error) {
	if err := t.load(ctx); err != nil {
		return 0, false, err
	}

	id, ok := t.owners[token]

	return id, ok, nil
}

// Currency returns the reference entry for the given currency
func (t *CheckerTable) Currency(ctx context.Context, id int64) (types.CurrencyInfo, bool, error) {
	if err := t.load(ctx); err != nil {
		return types.CurrencyInfo{}, false, err
	}

	c, ok := t.currencies[id]

	return c, ok, nil
}
