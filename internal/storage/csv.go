// Implements the index file CSV dialect: configurable delimiter, quote
// character and quoting policy.

package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Quoting selects when fields are quoted on write.
type Quoting string

const (
	// QuoteMinimal quotes only fields containing the delimiter, the quote
	// character or a line break.
	QuoteMinimal Quoting = "minimal"
	// QuoteAll quotes every field.
	QuoteAll Quoting = "all"
	// QuoteNonNumeric quotes every field that is not a number.
	QuoteNonNumeric Quoting = "nonnumeric"
	// QuoteNone never quotes; fields with special characters are rejected.
	QuoteNone Quoting = "none"
)

// Dialect describes the index file encoding.
type Dialect struct {
	Delimiter rune
	Quote     rune
	Quoting   Quoting
}

// DefaultDialect is ';' separated with minimal '"' quoting.
var DefaultDialect = Dialect{Delimiter: ';', Quote: '"', Quoting: QuoteMinimal}

var errNeedsQuoting = errors.New("field needs quoting but quoting is disabled")

// Validate checks the dialect is usable.
func (d *Dialect) Validate() error {
	if d.Delimiter == 0 || d.Delimiter == '\n' || d.Delimiter == '\r' || d.Delimiter == utf8.RuneError {
		return fmt.Errorf("invalid delimiter %q", d.Delimiter)
	}
	if d.Quoting != QuoteNone {
		if d.Quote == 0 || d.Quote == '\n' || d.Quote == '\r' || d.Quote == utf8.RuneError {
			return fmt.Errorf("invalid quote character %q", d.Quote)
		}
		if d.Quote == d.Delimiter {
			return errors.New("quote character and delimiter must differ")
		}
	}
	switch d.Quoting {
	case QuoteMinimal, QuoteAll, QuoteNonNumeric, QuoteNone:
	default:
		return fmt.Errorf("unknown quoting policy %q", d.Quoting)
	}
	return nil
}

// writeRow encodes one record followed by a line feed.
func (d *Dialect) writeRow(w *bufio.Writer, row []string) error {
	for i, f := range row {
		if i > 0 {
			if _, err := w.WriteRune(d.Delimiter); err != nil {
				return err
			}
		}
		if !d.needsQuotes(f) {
			if d.Quoting == QuoteNone && d.hasSpecial(f) {
				return fmt.Errorf("%w: %q", errNeedsQuoting, f)
			}
			if _, err := w.WriteString(f); err != nil {
				return err
			}
			continue
		}
		q := string(d.Quote)
		if _, err := w.WriteString(q + strings.ReplaceAll(f, q, q+q) + q); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func (d *Dialect) needsQuotes(f string) bool {
	switch d.Quoting {
	case QuoteAll:
		return true
	case QuoteNonNumeric:
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return true
		}
		return d.hasSpecial(f)
	case QuoteNone:
		return false
	default:
		return d.hasSpecial(f)
	}
}

func (d *Dialect) hasSpecial(f string) bool {
	return strings.ContainsRune(f, d.Delimiter) || (d.Quoting != QuoteNone && strings.ContainsRune(f, d.Quote)) || strings.ContainsAny(f, "\r\n")
}

// rowReader decodes records. Quoted fields may span lines and escape the
// quote character by doubling it.
type rowReader struct {
	d    *Dialect
	r    *bufio.Reader
	line int
}

func newRowReader(d *Dialect, r io.Reader) *rowReader {
	return &rowReader{d: d, r: bufio.NewReader(r)}
}

// read returns the next record and the line it started on. Blank lines are
// skipped. It returns io.EOF after the last record.
func (rr *rowReader) read() ([]string, int, error) {
record:
	for {
		rr.line++
		start := rr.line
		var fields []string
		var field strings.Builder
		quoted := false
		atFieldStart := true
		blank := true
		for {
			c, _, err := rr.r.ReadRune()
			if err == io.EOF {
				if quoted {
					return nil, start, fmt.Errorf("line %d: unterminated quoted field", start)
				}
				if blank {
					return nil, start, io.EOF
				}
				return append(fields, strings.TrimSuffix(field.String(), "\r")), start, nil
			}
			if err != nil {
				return nil, start, err
			}
			if quoted {
				if c == rr.d.Quote {
					next, _, err := rr.r.ReadRune()
					if err == nil && next == rr.d.Quote {
						field.WriteRune(c)
						continue
					}
					if err == nil {
						_ = rr.r.UnreadRune()
					}
					quoted = false
					continue
				}
				if c == '\n' {
					rr.line++
				}
				field.WriteRune(c)
				continue
			}
			switch {
			case c == '\n':
				if blank {
					continue record
				}
				return append(fields, strings.TrimSuffix(field.String(), "\r")), start, nil
			case c == rr.d.Delimiter:
				blank = false
				fields = append(fields, field.String())
				field.Reset()
				atFieldStart = true
			case atFieldStart && rr.d.Quoting != QuoteNone && c == rr.d.Quote:
				blank = false
				quoted = true
				atFieldStart = false
			default:
				if c != '\r' {
					blank = false
				}
				field.WriteRune(c)
				atFieldStart = false
			}
		}
	}
}
