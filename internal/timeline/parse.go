package timeline

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ParseErrorKind classifies why a record was rejected.
type ParseErrorKind int

const (
	// MalformedRecord means the record did not split into exactly three
	// comma-separated fields.
	MalformedRecord ParseErrorKind = iota

	// UnknownCategory means the category field matched nothing in the
	// vocabulary.
	UnknownCategory

	// InvalidStartTime and InvalidEndTime mean an offset field did not
	// parse as hours:minutes:seconds with an optional fraction.
	InvalidStartTime
	InvalidEndTime
)

func (k ParseErrorKind) String() string {
	switch k {
	case MalformedRecord:
		return "malformed record"
	case UnknownCategory:
		return "unknown category"
	case InvalidStartTime:
		return "invalid start time"
	case InvalidEndTime:
		return "invalid end time"
	}
	return fmt.Sprintf("ParseErrorKind(%d)", int(k))
}

// ParseError reports a rejected record. Line is 1-based within the log
// file and zero when the record was parsed on its own. Detail holds the
// offending fragment: the unknown label, the bad time field, or the field
// count for malformed records.
type ParseError struct {
	Kind   ParseErrorKind
	Line   int
	Record string
	Detail string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	fmt.Fprintf(&b, "%s %q", e.Kind, e.Detail)
	if e.Record != "" && e.Record != e.Detail {
		fmt.Fprintf(&b, " in record %q", e.Record)
	}
	return b.String()
}

// ParseOffset parses a duration literal of the form
// hours:minutes:seconds[.fraction]. Minutes and seconds run 0-59, hours
// are unbounded, and the fraction is decimal digits scaled positionally
// (".5" is 500ms). This is the only timestamp shape the capture tool
// writes.
func ParseOffset(s string) (time.Duration, error) {
	hms, frac, hasFrac := strings.Cut(s, ".")
	parts := strings.Split(hms, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("offset %q: want hours:minutes:seconds", s)
	}
	hours, err := parseComponent(parts[0])
	if err != nil {
		return 0, fmt.Errorf("offset %q: hours: %w", s, err)
	}
	minutes, err := parseComponent(parts[1])
	if err != nil || minutes > 59 {
		return 0, fmt.Errorf("offset %q: minutes out of range", s)
	}
	seconds, err := parseComponent(parts[2])
	if err != nil || seconds > 59 {
		return 0, fmt.Errorf("offset %q: seconds out of range", s)
	}

	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
	if hasFrac {
		fd, err := parseFraction(frac)
		if err != nil {
			return 0, fmt.Errorf("offset %q: %w", s, err)
		}
		d += fd
	}
	return d, nil
}

// parseComponent parses one colon-separated component as a non-negative
// integer. Signs are rejected so "-1:00:00" cannot sneak through Atoi.
func parseComponent(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty component")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit in %q", s)
		}
	}
	return strconv.Atoi(s)
}

// parseFraction converts the digits after the decimal point into a
// duration. Digits beyond nanosecond precision are dropped.
func parseFraction(frac string) (time.Duration, error) {
	if frac == "" {
		return 0, fmt.Errorf("empty fraction")
	}
	ns := int64(0)
	scale := int64(100_000_000)
	for _, r := range frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit in fraction %q", frac)
		}
		if scale > 0 {
			ns += int64(r-'0') * scale
			scale /= 10
		}
	}
	return time.Duration(ns), nil
}

// ParseRecord parses a single "start,end,category" record.
//
// The category resolves first because it decides whether the end field
// means anything: boundary records (RunStart, RunEnd) carry no end time
// and their end field is ignored without being parsed. For load records
// both offsets must parse and Load becomes End - Start.
func ParseRecord(record string) (Event, error) {
	fields := strings.Split(record, ",")
	if len(fields) != 3 {
		return Event{}, &ParseError{
			Kind:   MalformedRecord,
			Record: record,
			Detail: fmt.Sprintf("%d fields, want 3", len(fields)),
		}
	}

	cat, ok := labelCategories[fields[2]]
	if !ok {
		return Event{}, &ParseError{Kind: UnknownCategory, Record: record, Detail: fields[2]}
	}

	start, err := ParseOffset(fields[0])
	if err != nil {
		return Event{}, &ParseError{Kind: InvalidStartTime, Record: record, Detail: fields[0]}
	}
	ev := Event{Category: cat, Start: start}
	if cat.IsBoundary() {
		return ev, nil
	}

	end, err := ParseOffset(fields[1])
	if err != nil {
		return Event{}, &ParseError{Kind: InvalidEndTime, Record: record, Detail: fields[1]}
	}
	ev.End = end
	ev.Load = end - start
	return ev, nil
}

// ParseLog parses a whole log. The first line is the header and is
// discarded without inspection; every following line must be a valid
// record. The first failure aborts the parse and the returned ParseError
// carries the 1-based line number and the raw line. There are no partial
// results.
func ParseLog(lines []string) ([]Event, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	events := make([]Event, 0, len(lines)-1)
	for i, line := range lines[1:] {
		ev, err := ParseRecord(line)
		if err != nil {
			if perr, ok := err.(*ParseError); ok {
				perr.Line = i + 2
			}
			return nil, err
		}
		ev.Line = i + 2
		events = append(events, ev)
	}
	return events, nil
}

// ReadLog reads lines from r and parses them with ParseLog. Line endings
// may be LF or CRLF; a trailing newline does not produce a phantom empty
// record.
func ReadLog(r io.Reader) ([]Event, error) {
	sc := bufio.NewScanner(r)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return ParseLog(lines)
}
