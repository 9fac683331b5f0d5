// Package version хранит сведения о сборке storefront-service.
// Значения подставляются через -ldflags "-X .../internal/version.version=...",
// при их отсутствии ревизия берётся из debug.ReadBuildInfo.
package version

import (
	"fmt"
	"runtime/debug"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ServiceName используется в health-ответах и логах.
const ServiceName = "storefront-service"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Build - снимок сведений о сборке.
type Build struct {
	Service string
	Version string
	Commit  string
	Date    string
	Dirty   bool
}

var (
	currentOnce sync.Once
	current     Build
)

// Current возвращает сведения о сборке. Результат вычисляется один раз.
func Current() Build {
	currentOnce.Do(func() {
		current = resolve(version, commit, date, debug.ReadBuildInfo)
	})
	return current
}

func resolve(v, c, d string, read func() (*debug.BuildInfo, bool)) Build {
	b := Build{Service: ServiceName, Version: v, Commit: c, Date: d}
	if c != "unknown" && c != "" {
		return b
	}
	info, ok := read()
	if !ok || info == nil {
		return b
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			b.Commit = setting.Value
		case "vcs.time":
			if b.Date == "unknown" || b.Date == "" {
				b.Date = setting.Value
			}
		case "vcs.modified":
			b.Dirty = setting.Value == "true"
		}
	}
	return b
}

// GetVersion возвращает версию сборки.
func GetVersion() string { return Current().Version }

// String форматирует сведения о сборке в одну строку для логов.
func String() string {
	b := Current()
	s := fmt.Sprintf("%s version=%s commit=%s date=%s", b.Service, b.Version, b.Commit, b.Date)
	if b.Dirty {
		s += " dirty"
	}
	return s
}

// Fields возвращает сведения о сборке как поля logrus.
func Fields() log.Fields {
	b := Current()
	return log.Fields{
		"service": b.Service,
		"version": b.Version,
		"commit":  b.Commit,
		"date":    b.Date,
	}
}
