// Package golog is a small leveled logger with key/value context. Entries are
// rendered by a Formatter and written by a Handler so the same call sites can
// log logfmt lines locally and JSON documents inside Lambda.
package golog

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents a log level (CRIT, ERR, ...)
type Level int32

// Log levels
const (
	CRIT  Level = iota // For panics (code bugs)
	ERR                // Errors the pipeline degrades past
	WARN               // e.g. correctable but inconsistent state
	INFO               // Stage progress
	DEBUG              // Normally turned off but can help to track down issues
)

// Levels maps log level to a string
var Levels = map[Level]string{
	CRIT:  "CRIT",
	ERR:   "ERR",
	WARN:  "WARN",
	INFO:  "INFO",
	DEBUG: "DEBUG",
}

func (l Level) String() string {
	if s := Levels[l]; s != "" {
		return s
	}
	return strconv.Itoa(int(l))
}

// ParseLevel returns the level matching the name (case insensitive).
func ParseLevel(s string) (Level, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "ERROR":
		return ERR, nil
	case "WARNING":
		return WARN, nil
	}
	for l, name := range Levels {
		if name == s {
			return l, nil
		}
	}
	return INFO, fmt.Errorf("golog: unknown level %q", s)
}

type Logger interface {
	// Context returns a logger that appends the key/value pairs to every entry.
	Context(ctx ...interface{}) Logger

	SetLevel(l Level) Level
	Level() Level
	// L returns true if the current level is greater than or equal to 'l'
	L(l Level) bool

	SetHandler(h Handler)
	Handler() Handler

	Logf(calldepth int, l Level, format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type Entry struct {
	Time time.Time
	Lvl  Level
	Msg  string
	Ctx  []interface{}
	Src  string
}

type logger struct {
	mu  sync.Mutex
	ctx []interface{}
	hnd Handler
	lvl Level
}

var defaultL = &logger{
	hnd: DefaultHandler,
	lvl: INFO,
}

var DefaultHandler = IOHandler(os.Stdout, os.Stderr, LogfmtFormatter())

func Default() Logger {
	return defaultL
}

// New returns a logger independent of the default one.
func New(h Handler, lvl Level) Logger {
	return &logger{hnd: h, lvl: lvl}
}

func (l *logger) SetLevel(lvl Level) Level {
	return Level(atomic.SwapInt32((*int32)(&l.lvl), int32(lvl)))
}

func (l *logger) Level() Level {
	return Level(atomic.LoadInt32((*int32)(&l.lvl)))
}

func (l *logger) SetHandler(h Handler) {
	l.mu.Lock()
	l.hnd = h
	l.mu.Unlock()
}

func (l *logger) Handler() Handler {
	l.mu.Lock()
	h := l.hnd
	l.mu.Unlock()
	return h
}

func (l *logger) L(lvl Level) bool {
	return l.Level() >= lvl
}

func (l *logger) Context(ctx ...interface{}) Logger {
	if len(ctx)%2 != 0 {
		ctx = append(ctx, nil)
	}
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &logger{
		ctx: merged,
		hnd: l.Handler(),
		lvl: l.Level(),
	}
}

func (l *logger) Logf(calldepth int, lvl Level, format string, args ...interface{}) {
	if !l.L(lvl) {
		return
	}
	e := &Entry{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  fmt.Sprintf(format, args...),
		Ctx:  l.ctx,
	}
	if calldepth > 0 {
		if _, file, line, ok := runtime.Caller(calldepth); ok {
			e.Src = shortSource(file) + ":" + strconv.Itoa(line)
		}
	}
	// A failing handler has nowhere better to report to.
	_ = l.Handler().Log(e)
}

// shortSource keeps the last directory and the file name.
func shortSource(file string) string {
	depth := 0
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			depth++
			if depth == 2 {
				return file[i+1:]
			}
		}
	}
	return file
}

func (l *logger) Fatalf(format string, args ...interface{}) {
	l.Logf(2, CRIT, format, args...)
	os.Exit(255)
}

func (l *logger) Criticalf(format string, args ...interface{}) {
	l.Logf(2, CRIT, format, args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.Logf(2, ERR, format, args...)
}

func (l *logger) Warningf(format string, args ...interface{}) {
	l.Logf(2, WARN, format, args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.Logf(-1, INFO, format, args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	l.Logf(-1, DEBUG, format, args...)
}

func Fatalf(format string, args ...interface{}) {
	defaultL.Logf(2, CRIT, format, args...)
	os.Exit(255)
}

func Errorf(format string, args ...interface{}) {
	defaultL.Logf(2, ERR, format, args...)
}

func Warningf(format string, args ...interface{}) {
	defaultL.Logf(2, WARN, format, args...)
}

func Infof(format string, args ...interface{}) {
	defaultL.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	defaultL.Debugf(format, args...)
}
