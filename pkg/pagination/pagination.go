// Package pagination implements keyset paging over (created_at, id) for the
// sub-order listings.
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

const cursorVersion = "c1"

// ErrInvalidCursor is returned for cursors that cannot be decoded or were
// issued for another listing.
var ErrInvalidCursor = errors.New("invalid cursor")

type Params struct {
	Limit  int
	Cursor string
}

// Cursor points just past the last row of a page. Scope names the listing
// that issued it, so a cursor from one kind of listing is refused by another.
type Cursor struct {
	Scope     string
	CreatedAt time.Time
	ID        uuid.UUID
}

func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer asks for one row past the page to learn whether another
// page follows.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Trim cuts rows fetched with LimitWithBuffer down to the page and reports
// whether more rows remain.
func Trim[T any](rows []T, limit int) ([]T, bool) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, false
	}
	return rows[:limit], true
}

// EncodeCursor renders a URL-safe token: c1.<scope>.<unix nanos>.<id>.
func EncodeCursor(c Cursor) string {
	raw := strings.Join([]string{
		cursorVersion,
		c.Scope,
		strconv.FormatInt(c.CreatedAt.UTC().UnixNano(), 10),
		c.ID.String(),
	}, ".")
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor decodes value for the listing named scope. An empty value is the
// first page and yields nil.
func ParseCursor(value, scope string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: not base64", ErrInvalidCursor)
	}
	parts := strings.Split(string(decoded), ".")
	if len(parts) != 4 || parts[0] != cursorVersion {
		return nil, fmt.Errorf("%w: unknown format", ErrInvalidCursor)
	}
	if parts[1] != scope {
		return nil, fmt.Errorf("%w: issued for %q listing", ErrInvalidCursor, parts[1])
	}
	nanos, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp", ErrInvalidCursor)
	}
	id, err := uuid.Parse(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: bad id", ErrInvalidCursor)
	}
	return &Cursor{
		Scope:     scope,
		CreatedAt: time.Unix(0, nanos).UTC(),
		ID:        id,
	}, nil
}
