package lsp

import (
	"os"
	"time"
)

// GrammarWatcher polls the grammar files of a server's languages and
// reloads a language when its grammar changes on disk.
type GrammarWatcher struct {
	server       *Server
	stopCh       chan struct{}
	pollInterval time.Duration
	modTimes     map[string]time.Time
}

func NewGrammarWatcher(s *Server, interval time.Duration) *GrammarWatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &GrammarWatcher{
		server:       s,
		stopCh:       make(chan struct{}),
		pollInterval: interval,
		modTimes:     make(map[string]time.Time),
	}
}

func (w *GrammarWatcher) Start() {
	w.scan()
	go w.run()
}

func (w *GrammarWatcher) Stop() {
	close(w.stopCh)
}

func (w *GrammarWatcher) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

// scan reloads the languages whose grammar changed since the last scan
// and returns how many were reloaded. The first scan only records
// modification times.
func (w *GrammarWatcher) scan() int {
	reloaded := 0
	for _, lang := range w.server.Config().Languages {
		info, err := os.Stat(lang.Grammar)
		if err != nil {
			log.Warningf("watch %s: %s", lang.Grammar, err)
			continue
		}

		lastMod, known := w.modTimes[lang.Grammar]
		w.modTimes[lang.Grammar] = info.ModTime()
		if !known || !info.ModTime().After(lastMod) {
			continue
		}
		if err := w.server.Reload(lang); err != nil {
			log.Errorf("reload %s: %s", lang.ID, err)
			continue
		}
		reloaded++
	}
	return reloaded
}
